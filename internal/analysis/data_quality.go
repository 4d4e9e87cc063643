package analysis

import (
	"fmt"
	"math"
	"time"
)

// Data quality levels
const (
	QualityExcellent    = "excellent"
	QualityGood         = "good"
	QualityFair         = "fair"
	QualityPoor         = "poor"
	QualityInsufficient = "insufficient"
)

// Data sources
const (
	SourceRaces    = "races"
	SourceTraining = "training"
	SourceDefault  = "default"
)

// DataQuality summarizes how much the history supports the predictions
type DataQuality struct {
	Score           float64  `json:"score"`
	Level           string   `json:"level"`
	Recommendations []string `json:"recommendations"`
}

// AssessDataQuality scores race count, race recency, activity volume and HR coverage.
// Each part contributes up to a quarter of the score.
func AssessDataQuality(races []RacePerformance, activities []TrainingActivity, now time.Time) DataQuality {
	valid := usableRaces(races)
	recent := recentActivities(activities, now, featureWindowDays)

	recentRaces := 0
	for _, r := range valid {
		if age := now.Sub(r.Date).Hours() / 24; age >= 0 && age <= recentRaceDays {
			recentRaces++
		}
	}
	hr := 0
	for _, a := range recent {
		if a.HasHeartRate() {
			hr++
		}
	}

	raceScore := clamp01(float64(len(valid)) / 5)
	recencyScore := clamp01(float64(recentRaces) / 2)
	activityScore := clamp01(float64(len(recent)) / 24)
	hrScore := 0.0
	if len(recent) > 0 {
		hrScore = float64(hr) / float64(len(recent))
	}
	score := round2(0.25*raceScore + 0.25*recencyScore + 0.25*activityScore + 0.25*hrScore)

	var recs []string
	if len(valid) < 2 {
		recs = append(recs, fmt.Sprintf("Record at least %d more race results (1K or longer) to personalize the endurance model", 2-len(valid)))
	} else if len(valid) < 5 {
		recs = append(recs, "Add races at a range of distances to sharpen the endurance curve")
	}
	if len(valid) > 0 && recentRaces == 0 {
		recs = append(recs, "Run a race or time trial; none in the last 90 days")
	}
	if len(recent) < minFeatureActivities {
		recs = append(recs, fmt.Sprintf("Log at least %d training runs in the last 12 weeks to enable training adjustments", minFeatureActivities))
	}
	if len(recent) > 0 && hrScore < 0.5 {
		recs = append(recs, "Wear a heart rate monitor to enable efficiency and training load analysis")
	}

	level := QualityPoor
	switch {
	case len(valid)+len(activities) < 2:
		level = QualityInsufficient
	case score >= 0.8:
		level = QualityExcellent
	case score >= 0.6:
		level = QualityGood
	case score >= 0.4:
		level = QualityFair
	}

	return DataQuality{Score: score, Level: level, Recommendations: recs}
}

// DataSource names what the predictions are mostly built from
func DataSource(races []RacePerformance, activities []TrainingActivity) string {
	switch {
	case len(usableRaces(races)) >= 2:
		return SourceRaces
	case len(activities) > 0:
		return SourceTraining
	default:
		return SourceDefault
	}
}

// UsableRaceCount returns the number of races the endurance fit can use
func UsableRaceCount(races []RacePerformance) int {
	return len(usableRaces(races))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
