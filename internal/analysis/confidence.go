package analysis

import (
	"math"
	"sort"
	"time"
)

// Confidence bounds
const (
	FallbackConfidence = 0.3
	MinConfidence      = 0.3
	MaxConfidence      = 0.85

	minEstimatedConfidence = 0.4
	recentRaceDays         = 90
	maxBacktestRaces       = 10
)

// ConfidenceInput carries what the estimator needs about one prediction
type ConfidenceInput struct {
	Target            float64
	Races             []RacePerformance
	ModelOutputs      []float64
	VolumeConsistency float64
	Now               time.Time
}

// EstimateConfidence scores a prediction from race recency, model agreement,
// similar-distance experience and volume consistency. Result is in [0.4, 0.85].
func EstimateConfidence(in ConfidenceInput) float64 {
	recent, similar := 0, 0
	for _, r := range in.Races {
		if r.DistanceMeters <= 0 {
			continue
		}
		if age := in.Now.Sub(r.Date).Hours() / 24; age >= 0 && age <= recentRaceDays {
			recent++
		}
		ratio := in.Target / r.DistanceMeters
		if ratio >= 0.5 && ratio <= 2.0 {
			similar++
		}
	}

	c := math.Min(0.3, float64(recent)/10)
	if len(in.ModelOutputs) >= 2 {
		c += math.Max(0, 0.3*(1-2*coefficientOfVariation(in.ModelOutputs)))
	}
	c += math.Min(0.2, float64(similar)*0.05)
	c += clamp01(in.VolumeConsistency) * 0.2

	return clamp(c, minEstimatedConfidence, MaxConfidence)
}

// baseUncertainty is the relative uncertainty for a distance tier
func baseUncertainty(target float64) float64 {
	switch {
	case target <= Distance5K:
		return 0.015
	case target <= Distance10K:
		return 0.02
	case target <= DistanceHalfMara:
		return 0.025
	default:
		return 0.035
	}
}

// BuildInterval derives the asymmetric uncertainty band around a prediction.
// Slower outcomes are given more room than faster ones.
func BuildInterval(predicted, target, confidence, residualFactor float64) PredictionInterval {
	u := baseUncertainty(target) * (2 - confidence) * residualFactor
	iv := PredictionInterval{
		Lower:             predicted * (1 - u*0.8),
		Upper:             predicted * (1 + u*1.2),
		Percentile80Lower: predicted * (1 - u*0.6),
		Percentile80Upper: predicted * (1 + u*0.9),
	}
	iv.Margin = (iv.Upper - iv.Lower) / 2
	return iv
}

// scale multiplies every bound by f
func (iv PredictionInterval) scale(f float64) PredictionInterval {
	return PredictionInterval{
		Lower:             iv.Lower * f,
		Upper:             iv.Upper * f,
		Margin:            iv.Margin * f,
		Percentile80Lower: iv.Percentile80Lower * f,
		Percentile80Upper: iv.Percentile80Upper * f,
	}
}

// ResidualVarianceFactor backtests the fitted power law against up to 10 recent races
// and turns its mean absolute percentage error into an interval multiplier in [0.3, 1.5].
// Returns 1 when there is nothing to backtest.
func ResidualVarianceFactor(p EnduranceProfile, races []RacePerformance) float64 {
	valid := usableRaces(races)
	if len(valid) == 0 {
		return 1
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Date.After(valid[j].Date)
	})
	if len(valid) > maxBacktestRaces {
		valid = valid[:maxBacktestRaces]
	}

	var errs []float64
	for _, r := range valid {
		pred := PredictPowerLaw(p, r.DistanceMeters)
		if pred <= 0 {
			continue
		}
		errs = append(errs, math.Abs(pred-r.TimeSeconds)/r.TimeSeconds)
	}
	if len(errs) == 0 {
		return 1
	}
	return clamp(mean(errs)*20, 0.3, 1.5)
}

// paceTable holds heuristic paces in s/km by distance tier
func paceTablePace(target float64) float64 {
	switch {
	case target <= Distance5K:
		return 240
	case target <= Distance10K:
		return 250
	case target <= DistanceHalfMara:
		return 270
	default:
		return 300
	}
}

// PaceTableResult is the last-resort heuristic prediction
func PaceTableResult(target float64) PredictionResult {
	t := paceTablePace(target) * target / 1000
	return PredictionResult{
		DistanceMeters:       target,
		PredictedTimeSeconds: t,
		Confidence:           FallbackConfidence,
		Interval: PredictionInterval{
			Lower:             t * 0.9,
			Upper:             t * 1.1,
			Margin:            t * 0.1,
			Percentile80Lower: t * 0.95,
			Percentile80Upper: t * 1.05,
		},
		Models: ContributingModels{PowerLaw: t},
		Method: MethodPaceTable,
	}
}
