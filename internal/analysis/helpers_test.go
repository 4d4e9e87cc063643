package analysis

import "time"

// 2026-10-01 is a Thursday
var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

// easyRuns returns n 8km runs at 5:30/km with HR 140, one every 4 days
func easyRuns(n int) []TrainingActivity {
	out := make([]TrainingActivity, n)
	for i := range out {
		out[i] = TrainingActivity{
			Date:             daysAgo(1 + 4*i),
			DistanceMeters:   8000,
			DurationSeconds:  8 * 330,
			AverageHeartRate: floatPtr(140),
		}
	}
	return out
}
