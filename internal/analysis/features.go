package analysis

import (
	"math"
	"time"
)

// Feature windows and coefficients
const (
	featureWindowDays      = 84
	formTrendRecentDays    = 28
	volumeWeeks            = 8
	minFeatureActivities   = 5
	minHRActivities        = 3
	longRunTargetThreshold = 21100

	coefVolumeConsistency  = -0.03
	coefDistanceExperience = -0.02
	coefFormTrend          = -0.025
	coefHREfficiency       = -0.015
	coefLongRunPrep        = -0.02
)

// TrainingFeatures summarizes recent training relative to a target distance.
// All values are in [0, 1].
type TrainingFeatures struct {
	VolumeConsistency  float64
	DistanceExperience float64
	FormTrend          float64
	HREfficiency       float64
	LongRunPreparation float64

	RecentActivities int
	HRActivities     int
}

// Sufficient reports whether there is enough recent training to apply feature adjustments
func (f TrainingFeatures) Sufficient() bool {
	return f.RecentActivities >= minFeatureActivities
}

// recentActivities returns activities dated within days before now
func recentActivities(activities []TrainingActivity, now time.Time, days float64) []TrainingActivity {
	var out []TrainingActivity
	for _, a := range activities {
		age := now.Sub(a.Date).Hours() / 24
		if age >= 0 && age < days {
			out = append(out, a)
		}
	}
	return out
}

// ExtractFeatures derives training features for a target distance
func ExtractFeatures(target float64, races []RacePerformance, activities []TrainingActivity, now time.Time) TrainingFeatures {
	recent := recentActivities(activities, now, featureWindowDays)
	f := TrainingFeatures{RecentActivities: len(recent)}

	f.VolumeConsistency = volumeConsistency(recent, now)
	f.DistanceExperience = distanceExperience(target, races)
	f.FormTrend = formTrend(recent, now)

	ef, n := MeanEfficiency(recent)
	f.HRActivities = n
	if n >= minHRActivities {
		f.HREfficiency = clamp01(ef - 1.0)
	}

	if target >= longRunTargetThreshold {
		f.LongRunPreparation = longRunPreparation(target, recent)
	}
	return f
}

// VolumeConsistency returns 1 - CV of weekly distance over the last 8 weeks, floored at 0
func VolumeConsistency(activities []TrainingActivity, now time.Time) float64 {
	return volumeConsistency(recentActivities(activities, now, featureWindowDays), now)
}

func volumeConsistency(activities []TrainingActivity, now time.Time) float64 {
	if len(activities) == 0 {
		return 0
	}
	weeks := make([]float64, volumeWeeks)
	for _, a := range activities {
		idx := int(daysBetween(a.Date, now) / 7)
		if idx >= 0 && idx < volumeWeeks {
			weeks[idx] += a.DistanceMeters / 1000
		}
	}
	return math.Max(0, 1-coefficientOfVariation(weeks))
}

func distanceExperience(target float64, races []RacePerformance) float64 {
	count := 0
	for _, r := range races {
		if r.DistanceMeters <= 0 {
			continue
		}
		ratio := target / r.DistanceMeters
		if ratio >= 0.5 && ratio <= 2.0 {
			count++
		}
	}
	return math.Min(1, float64(count)/5)
}

// normalizedPace converts an activity pace to a 5K-equivalent pace in s/km
func normalizedPace(a TrainingActivity) float64 {
	if a.DistanceMeters <= 0 || a.DurationSeconds <= 0 {
		return 0
	}
	pace := a.DurationSeconds / (a.DistanceMeters / 1000)
	return pace * math.Pow(Distance5K/a.DistanceMeters, DefaultExponent-1)
}

func formTrend(activities []TrainingActivity, now time.Time) float64 {
	var recent, older []float64
	for _, a := range activities {
		p := normalizedPace(a)
		if p <= 0 || !isFinite(p) {
			continue
		}
		if daysBetween(a.Date, now) < formTrendRecentDays {
			recent = append(recent, p)
		} else {
			older = append(older, p)
		}
	}
	if len(recent) == 0 || len(older) == 0 {
		return 0
	}
	olderPace := mean(older)
	if olderPace <= 0 {
		return 0
	}
	return clamp01((olderPace - mean(recent)) / olderPace)
}

func longRunPreparation(target float64, activities []TrainingActivity) float64 {
	long, veryLong := 0, 0
	for _, a := range activities {
		if a.DistanceMeters >= 0.6*target {
			long++
		}
		if a.DistanceMeters >= 0.8*target {
			veryLong++
		}
	}
	return 0.6*math.Min(1, float64(long)/10) + 0.4*math.Min(1, float64(veryLong)/5)
}

// FeatureAdjustment converts features into a log-space adjustment and the factors behind it.
// Returns 0 when there is not enough recent training.
func FeatureAdjustment(target float64, f TrainingFeatures) (float64, []Factor) {
	if !f.Sufficient() {
		return 0, nil
	}

	var adj float64
	var factors []Factor
	add := func(name string, value, coef float64) {
		if value <= 0 {
			return
		}
		adj += value * coef
		factors = append(factors, Factor{Name: name, Impact: ImpactPositive, Strength: value})
	}

	add("volume consistency", f.VolumeConsistency, coefVolumeConsistency)
	add("distance experience", f.DistanceExperience, coefDistanceExperience)
	add("form trend", f.FormTrend, coefFormTrend)
	if f.HRActivities >= minHRActivities {
		add("heart rate efficiency", f.HREfficiency, coefHREfficiency)
	}
	if target >= longRunTargetThreshold {
		add("long run preparation", f.LongRunPreparation, coefLongRunPrep)
	}
	return adj, factors
}
