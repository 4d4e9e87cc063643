package analysis

import (
	"math"
	"time"

	"github.com/sajari/regression"
)

// Endurance model defaults and bounds
const (
	DefaultAlpha    = -1.843 // reproduces a ~22:00 5K
	DefaultExponent = 1.06
	MinExponent     = 1.02
	MaxExponent     = 1.12

	RecencyDecayDays = 60.0

	minCriticalSpeed = 2.5 // m/s
	maxCriticalSpeed = 6.0
	minCSRaceSeconds = 180
	maxCSRaceSeconds = 1800
	minCSRaces       = 3

	minModelRaceDistance = 1000
	minProfileConfidence = 0.3
	maxProfileConfidence = 0.9
)

// DefaultEnduranceProfile is used when there is not enough race history to fit one
func DefaultEnduranceProfile() EnduranceProfile {
	return EnduranceProfile{
		Alpha:      DefaultAlpha,
		Exponent:   DefaultExponent,
		Confidence: minProfileConfidence,
	}
}

// usableRaces keeps races the power-law fit can use
func usableRaces(races []RacePerformance) []RacePerformance {
	var out []RacePerformance
	for _, r := range races {
		if r.DistanceMeters < minModelRaceDistance || r.TimeSeconds <= 0 {
			continue
		}
		if !isFinite(math.Log(r.DistanceMeters)) || !isFinite(math.Log(r.TimeSeconds)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// EstimateEndurance fits a personalized Riegel exponent by weighted least squares in
// log space and, with enough short races, a critical-speed model.
func EstimateEndurance(races []RacePerformance, now time.Time) EnduranceProfile {
	valid := usableRaces(races)
	if len(valid) < 2 {
		p := DefaultEnduranceProfile()
		p.BaseRaceCount = len(valid)
		return p
	}

	var sumW, sumWD, sumWT float64
	weights := make([]float64, len(valid))
	for i, r := range valid {
		w := recencyWeight(r.Date, now) * QualityWeight(r)
		weights[i] = w
		sumW += w
		sumWD += w * math.Log(r.DistanceMeters)
		sumWT += w * math.Log(r.TimeSeconds)
	}

	exponent := DefaultExponent
	alpha := DefaultAlpha
	if sumW > 0 {
		meanD := sumWD / sumW
		meanT := sumWT / sumW

		var num, den float64
		for i, r := range valid {
			dd := math.Log(r.DistanceMeters) - meanD
			dt := math.Log(r.TimeSeconds) - meanT
			num += weights[i] * dd * dt
			den += weights[i] * dd * dd
		}
		if den != 0 && isFinite(num/den) {
			exponent = num / den
		}
		exponent = clamp(exponent, MinExponent, MaxExponent)

		// alpha is anchored on the clamped exponent so the curve still passes
		// through the weighted centroid
		if a := meanT - exponent*meanD; isFinite(a) {
			alpha = a
		}
	}

	profile := EnduranceProfile{
		Alpha:         alpha,
		Exponent:      exponent,
		Confidence:    clamp(float64(len(valid))/5, minProfileConfidence, maxProfileConfidence),
		BaseRaceCount: len(valid),
	}
	profile.CriticalSpeed, profile.AnaerobicCapacity = fitCriticalSpeed(valid)
	return profile
}

// fitCriticalSpeed fits distance = CS*time + D' over races lasting 3-30 minutes
func fitCriticalSpeed(races []RacePerformance) (*float64, *float64) {
	var r regression.Regression
	r.SetObserved("distance")
	r.SetVar(0, "time")

	n := 0
	for _, race := range races {
		if race.TimeSeconds < minCSRaceSeconds || race.TimeSeconds > maxCSRaceSeconds {
			continue
		}
		r.Train(regression.DataPoint(race.DistanceMeters, []float64{race.TimeSeconds}))
		n++
	}
	if n < minCSRaces {
		return nil, nil
	}
	if err := r.Run(); err != nil {
		return nil, nil
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) < 2 {
		return nil, nil
	}
	cs, dPrime := coeffs[1], coeffs[0]
	if !isFinite(cs) || cs < minCriticalSpeed || cs > maxCriticalSpeed {
		return nil, nil
	}
	if !isFinite(dPrime) || dPrime < 0 {
		dPrime = 0
	}
	return &cs, &dPrime
}

// PowerLawLog returns alpha + exponent*ln(distance)
func (p EnduranceProfile) PowerLawLog(distanceMeters float64) float64 {
	return p.Alpha + p.Exponent*math.Log(distanceMeters)
}

// PredictPowerLaw returns the plain power-law time for a distance, or 0 if it is not finite
func PredictPowerLaw(p EnduranceProfile, distanceMeters float64) float64 {
	if distanceMeters <= 0 {
		return 0
	}
	t := math.Exp(p.PowerLawLog(distanceMeters))
	if !isFinite(t) || t <= 0 {
		return 0
	}
	return t
}

// criticalSpeedTime returns (distance - D')/CS when the profile has a CS fit
func criticalSpeedTime(p EnduranceProfile, distanceMeters float64) (float64, bool) {
	if p.CriticalSpeed == nil || *p.CriticalSpeed <= 0 {
		return 0, false
	}
	dPrime := 0.0
	if p.AnaerobicCapacity != nil {
		dPrime = *p.AnaerobicCapacity
	}
	if distanceMeters <= dPrime {
		return 0, false
	}
	t := (distanceMeters - dPrime) / *p.CriticalSpeed
	if !isFinite(t) || t <= 0 {
		return 0, false
	}
	return t, true
}
