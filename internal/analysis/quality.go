package analysis

import (
	"math"
	"regexp"
	"strings"
)

// Quality multipliers
const (
	officialRaceBonus   = 1.2
	timeTrialBonus      = 1.1
	implausiblePenalty  = 0.5
	standardDistBonus   = 1.1
	maxQualityWeight    = 1.5
	minPlausiblePace    = 120 // s/km
	maxPlausiblePace    = 600 // s/km
	standardDistanceTol = 0.01
)

var (
	officialRacePattern = regexp.MustCompile(`(?i)\brac(e|ing)\b`)
	timeTrialPattern    = regexp.MustCompile(`(?i)park\s?run|time\s?trial`)

	qualityStandardDistances = []float64{Distance5K, Distance10K, DistanceHalfMara, DistanceMarathon}
)

// QualityWeight rates how much a race record can be trusted. Result is in [0, 1.5].
func QualityWeight(r RacePerformance) float64 {
	w := 1.0

	if looksOfficial(r) {
		w *= officialRaceBonus
	}
	if timeTrialPattern.MatchString(r.Name) || hasTag(r.Tags, "parkrun") || hasTag(r.Tags, "time trial") {
		w *= timeTrialBonus
	}

	pace := r.PaceSecondsPerKm()
	if r.DistanceMeters <= 0 || pace < minPlausiblePace || pace > maxPlausiblePace {
		w *= implausiblePenalty
	}

	for _, d := range qualityStandardDistances {
		if math.Abs(r.DistanceMeters-d)/d <= standardDistanceTol {
			w *= standardDistBonus
			break
		}
	}

	return math.Min(w, maxQualityWeight)
}

func looksOfficial(r RacePerformance) bool {
	if officialRacePattern.MatchString(r.Name) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), "race") {
			return true
		}
	}
	return false
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), want) {
			return true
		}
	}
	return false
}
