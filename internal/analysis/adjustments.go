package analysis

import (
	"math"
	"time"
)

const (
	consistencyWindowDays  = 28
	consistencyTargetCount = 12

	shortTaperDays   = 14
	buildPhaseDays   = 56
	optimalTaperGain = 0.015

	referencePaceMinPerKm = 5.0
)

// temperatureFactors maps race temperature (°C, 5° steps) to a time multiplier
var temperatureFactors = map[int]float64{
	5:  1.02,
	10: 1.00,
	15: 1.00,
	20: 1.02,
	25: 1.05,
	30: 1.08,
}

// TrainingConsistency is activities in the last 28 days over 12, capped at 1
func TrainingConsistency(activities []TrainingActivity, now time.Time) float64 {
	n := len(recentActivities(activities, now, consistencyWindowDays))
	return math.Min(1, float64(n)/consistencyTargetCount)
}

// TaperAdjustment returns the log-space improvement expected from the remaining
// build and taper before a race daysUntilRace away.
func TaperAdjustment(daysUntilRace int, consistency float64, optimalTaper bool) float64 {
	if daysUntilRace < 0 {
		return 0
	}
	var x float64
	switch {
	case daysUntilRace <= shortTaperDays:
		x = -0.01 * consistency
		if optimalTaper {
			x -= optimalTaperGain
		}
	case daysUntilRace <= buildPhaseDays:
		weeks := float64(daysUntilRace) / 7
		x = -math.Min(0.015, weeks*0.002*consistency)
		if optimalTaper {
			x -= optimalTaperGain / 2
		}
	default:
		x = -0.01 * consistency
	}
	return math.Log1p(x)
}

// temperatureFactor looks up the multiplier for the nearest 5°C step within [5, 30]
func temperatureFactor(celsius float64) float64 {
	step := int(math.Round(clamp(celsius, 5, 30)/5)) * 5
	if f, ok := temperatureFactors[step]; ok {
		return f
	}
	return 1
}

// ConditionsAdjustment returns the log-space effect of race-day conditions.
// Each option is independent and additive in relative time.
func ConditionsAdjustment(target float64, c RaceConditions) float64 {
	x, _ := conditionTerms(target, c)
	if 1+x <= 0 {
		return 0
	}
	return math.Log1p(x)
}

// conditionTerms returns the summed relative change and one factor per active condition
func conditionTerms(target float64, c RaceConditions) (float64, []Factor) {
	var x float64
	var factors []Factor
	add := func(name string, delta float64) {
		if delta == 0 {
			return
		}
		x += delta
		impact := ImpactNegative
		if delta < 0 {
			impact = ImpactPositive
		}
		factors = append(factors, Factor{Name: name, Impact: impact, Strength: math.Abs(delta)})
	}

	if c.Temperature != nil {
		add("temperature", temperatureFactor(*c.Temperature)-1)
	}
	if c.OptimalWeather {
		add("optimal weather", -0.015)
	}
	if c.Elevation != nil && *c.Elevation > 0 && target > 0 {
		penaltyMinPerKm := (*c.Elevation / (target / 1000)) * 1.75 / 60
		add("elevation gain", penaltyMinPerKm/referencePaceMinPerKm)
	}
	if c.FlatCourse {
		add("flat course", -0.01)
	}
	if c.WindSpeed != nil {
		switch {
		case *c.WindSpeed > 20:
			add("wind", 0.03)
		case *c.WindSpeed > 10:
			add("wind", 0.015)
		}
	}
	if c.Altitude != nil && *c.Altitude > 1000 {
		add("altitude", 0.02*(*c.Altitude)/1000)
	}
	return x, factors
}
