package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFeatures_TooFewActivities(t *testing.T) {
	f := ExtractFeatures(10000, nil, easyRuns(4), testNow)

	assert.False(t, f.Sufficient())
	adj, factors := FeatureAdjustment(10000, f)
	assert.Equal(t, 0.0, adj)
	assert.Nil(t, factors)
}

func TestExtractFeatures_VolumeConsistency(t *testing.T) {
	var runs []TrainingActivity
	for i := 0; i < 8; i++ {
		runs = append(runs, TrainingActivity{Date: daysAgo(3 + 7*i), DistanceMeters: 10000, DurationSeconds: 3000})
	}

	f := ExtractFeatures(10000, nil, runs, testNow)

	assert.True(t, f.Sufficient())
	assert.InDelta(t, 1.0, f.VolumeConsistency, 1e-9)
}

func TestExtractFeatures_InconsistentVolume(t *testing.T) {
	var runs []TrainingActivity
	for i := 0; i < 5; i++ {
		runs = append(runs, TrainingActivity{Date: daysAgo(1 + i), DistanceMeters: 10000, DurationSeconds: 3000})
	}

	f := ExtractFeatures(10000, nil, runs, testNow)

	// all volume in one of eight weeks: CV = sqrt(7) > 1
	assert.Equal(t, 0.0, f.VolumeConsistency)
}

func TestExtractFeatures_DistanceExperience(t *testing.T) {
	races := []RacePerformance{
		{DistanceMeters: 5000}, {DistanceMeters: 10000}, {DistanceMeters: 15000},
		{DistanceMeters: 42195},
	}
	f := ExtractFeatures(10000, races, nil, testNow)
	assert.InDelta(t, 3.0/5, f.DistanceExperience, 1e-9)
}

func TestExtractFeatures_FormTrend(t *testing.T) {
	var runs []TrainingActivity
	for i := 0; i < 4; i++ {
		// recent: 5:00/km
		runs = append(runs, TrainingActivity{Date: daysAgo(2 + 5*i), DistanceMeters: 10000, DurationSeconds: 3000})
		// older: 5:30/km
		runs = append(runs, TrainingActivity{Date: daysAgo(35 + 7*i), DistanceMeters: 10000, DurationSeconds: 3300})
	}

	f := ExtractFeatures(10000, nil, runs, testNow)

	assert.InDelta(t, (330.0-300.0)/330.0, f.FormTrend, 1e-9)
}

func TestExtractFeatures_FormTrendNeverNegative(t *testing.T) {
	var runs []TrainingActivity
	for i := 0; i < 4; i++ {
		runs = append(runs, TrainingActivity{Date: daysAgo(2 + 5*i), DistanceMeters: 10000, DurationSeconds: 3600})
		runs = append(runs, TrainingActivity{Date: daysAgo(35 + 7*i), DistanceMeters: 10000, DurationSeconds: 3000})
	}

	f := ExtractFeatures(10000, nil, runs, testNow)

	assert.Equal(t, 0.0, f.FormTrend)
}

func TestExtractFeatures_HREfficiency(t *testing.T) {
	// 8km in 2640s = 181.8 m/min at HR 140 -> EF 1.299
	f := ExtractFeatures(10000, nil, easyRuns(10), testNow)

	assert.Equal(t, 10, f.HRActivities)
	assert.InDelta(t, 8000.0/2640*60/140-1, f.HREfficiency, 1e-9)
}

func TestExtractFeatures_LongRunsOnlyForLongTargets(t *testing.T) {
	var runs []TrainingActivity
	for i := 0; i < 10; i++ {
		runs = append(runs, TrainingActivity{Date: daysAgo(1 + 7*i), DistanceMeters: 30000, DurationSeconds: 10800})
	}

	short := ExtractFeatures(10000, nil, runs, testNow)
	marathon := ExtractFeatures(DistanceMarathon, nil, runs, testNow)

	assert.Equal(t, 0.0, short.LongRunPreparation)
	// 30km >= 0.6*42.195 but < 0.8*42.195
	assert.InDelta(t, 0.6, marathon.LongRunPreparation, 1e-9)
}

func TestFeatureAdjustment(t *testing.T) {
	full := TrainingFeatures{
		VolumeConsistency:  1,
		DistanceExperience: 1,
		FormTrend:          1,
		HREfficiency:       1,
		LongRunPreparation: 1,
		RecentActivities:   10,
		HRActivities:       10,
	}

	adj, factors := FeatureAdjustment(DistanceMarathon, full)
	assert.InDelta(t, -0.11, adj, 1e-12)
	assert.Len(t, factors, 5)
	for _, f := range factors {
		assert.Equal(t, ImpactPositive, f.Impact)
	}

	adj, factors = FeatureAdjustment(Distance10K, full)
	assert.InDelta(t, -0.09, adj, 1e-12)
	assert.Len(t, factors, 4)

	noHR := full
	noHR.HRActivities = 2
	adj, _ = FeatureAdjustment(Distance10K, noHR)
	assert.InDelta(t, -0.075, adj, 1e-12)
}
