package analysis

import (
	"math"
	"time"
)

// Recovery levels
const (
	RecoveryLight    = "light"
	RecoveryModerate = "moderate"
	RecoveryHard     = "hard"
	RecoveryVeryHard = "very_hard"
)

// RecoveryEstimate is the recommended recovery after the latest session
type RecoveryEstimate struct {
	Hours          int      `json:"hours"`
	Level          string   `json:"level"`
	HoursRemaining *float64 `json:"hoursRemaining"`
}

// EstimateRecovery tiers the last session's load against current fitness.
// lastActivity may be nil, in which case HoursRemaining is unknown.
func EstimateRecovery(lastTRIMP, ctl float64, lastActivity *time.Time, now time.Time) RecoveryEstimate {
	ratio := 2.0
	if ctl > 0 {
		ratio = lastTRIMP / ctl
	}

	var est RecoveryEstimate
	switch {
	case lastTRIMP < 30 || ratio < 0.5:
		est = RecoveryEstimate{Hours: 24, Level: RecoveryLight}
	case lastTRIMP < 80 || ratio < 1.0:
		est = RecoveryEstimate{Hours: 36, Level: RecoveryModerate}
	case lastTRIMP < 150 || ratio < 1.5:
		est = RecoveryEstimate{Hours: 48, Level: RecoveryHard}
	default:
		est = RecoveryEstimate{Hours: 72, Level: RecoveryVeryHard}
	}

	if lastActivity != nil {
		since := now.Sub(*lastActivity).Hours()
		remaining := math.Max(0, float64(est.Hours)-since)
		est.HoursRemaining = &remaining
	}
	return est
}

// LastSession returns the most recent activity at or before now
func LastSession(activities []TrainingActivity, now time.Time) (TrainingActivity, bool) {
	var last TrainingActivity
	found := false
	for _, a := range activities {
		if a.Date.After(now) {
			continue
		}
		if !found || a.Date.After(last.Date) {
			last, found = a, true
		}
	}
	return last, found
}
