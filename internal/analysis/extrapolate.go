package analysis

import (
	"math"
	"sort"
	"time"
)

const (
	maxExtrapolationRaces = 6
	minDistanceRatio      = 0.1
	maxDistanceRatio      = 10
)

// Extrapolation is the weighted-race estimate for one target distance
type Extrapolation struct {
	LogTime     float64
	Confidence  float64
	TotalWeight float64
	RacesUsed   int
}

// Seconds returns the estimate in seconds
func (e Extrapolation) Seconds() float64 {
	return math.Exp(e.LogTime)
}

// ExtrapolateFromRaces projects the most recent races onto target using the profile
// exponent and averages them in log space. Returns false if no race contributes.
func ExtrapolateFromRaces(target float64, races []RacePerformance, exponent float64, now time.Time) (Extrapolation, bool) {
	if target <= 0 {
		return Extrapolation{}, false
	}

	var candidates []RacePerformance
	for _, r := range races {
		if r.DistanceMeters >= minModelRaceDistance && r.TimeSeconds > 0 {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Date.After(candidates[j].Date)
	})
	if len(candidates) > maxExtrapolationRaces {
		candidates = candidates[:maxExtrapolationRaces]
	}

	var sumW, sumWL float64
	used := 0
	for _, r := range candidates {
		ratio := target / r.DistanceMeters
		if ratio < minDistanceRatio || ratio > maxDistanceRatio {
			continue
		}
		logRatio := math.Log(ratio)
		logEstimate := math.Log(r.TimeSeconds) + exponent*logRatio
		w := recencyWeight(r.Date, now) * math.Exp(-math.Abs(logRatio)/2) * QualityWeight(r)
		if !isFinite(logEstimate) || !isFinite(w) || w <= 0 {
			continue
		}
		sumW += w
		sumWL += w * logEstimate
		used++
	}

	if sumW <= 0 {
		return Extrapolation{}, false
	}
	return Extrapolation{
		LogTime:     sumWL / sumW,
		Confidence:  math.Min(maxProfileConfidence, sumW/2),
		TotalWeight: sumW,
		RacesUsed:   used,
	}, true
}
