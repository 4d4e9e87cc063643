package analysis

import "math"

// distancePair is a (shorter, longer) pair of standard distances with the
// time ratio used when the longer prediction is implausibly fast and the
// physiological bounds on that ratio.
type distancePair struct {
	shorter, longer float64
	fixedRatio      float64
	minRatio        float64
	maxRatio        float64
}

var plausibilityPairs = []distancePair{
	{Distance5K, Distance10K, 2.08, 2.05, 2.25},
	{Distance10K, DistanceHalfMara, 2.15, 2.13, 2.40},
	{DistanceHalfMara, DistanceMarathon, 2.10, 2.05, 2.35},
}

const (
	clampedConfidencePenalty     = 0.8
	outOfBoundsConfidencePenalty = 0.7
	plausibilityMatchTolerance   = 0.01
)

// EnforcePlausibility cross-checks predictions for the standard distances so pace never
// improves as distance grows. Pairs are processed shortest first, so a correction to the
// 10K carries into the half-marathon check. Other distances pass through untouched.
func EnforcePlausibility(results []PredictionResult) []PredictionResult {
	out := make([]PredictionResult, len(results))
	copy(out, results)

	find := func(d float64) int {
		for i := range out {
			if math.Abs(out[i].DistanceMeters-d)/d <= plausibilityMatchTolerance {
				return i
			}
		}
		return -1
	}

	for _, p := range plausibilityPairs {
		si, li := find(p.shorter), find(p.longer)
		if si < 0 || li < 0 {
			continue
		}
		short, long := &out[si], &out[li]
		if short.PredictedTimeSeconds <= 0 || long.PredictedTimeSeconds <= 0 {
			continue
		}

		if long.PaceSecondsPerKm() < short.PaceSecondsPerKm() {
			clamped := short.PredictedTimeSeconds * p.fixedRatio
			long.Interval = long.Interval.scale(clamped / long.PredictedTimeSeconds)
			long.PredictedTimeSeconds = clamped
			long.Confidence *= clampedConfidencePenalty
			long.Factors = append(append([]Factor(nil), long.Factors...), Factor{
				Name:     "cross-distance consistency",
				Impact:   ImpactNegative,
				Strength: 1 - clampedConfidencePenalty,
			})
		}

		ratio := long.PredictedTimeSeconds / short.PredictedTimeSeconds
		if ratio < p.minRatio || ratio > p.maxRatio {
			long.Confidence *= outOfBoundsConfidencePenalty
		}
	}

	for i := range out {
		out[i].Confidence = clamp(out[i].Confidence, MinConfidence, MaxConfidence)
	}
	return out
}
