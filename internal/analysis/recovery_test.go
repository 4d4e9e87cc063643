package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateRecovery_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		lastTRIMP float64
		ctl       float64
		hours     int
		level     string
	}{
		{name: "easy jog", lastTRIMP: 20, ctl: 50, hours: 24, level: RecoveryLight},
		{name: "small relative to fitness", lastTRIMP: 200, ctl: 1000, hours: 24, level: RecoveryLight},
		{name: "moderate session", lastTRIMP: 60, ctl: 100, hours: 36, level: RecoveryModerate},
		{name: "big but below fitness", lastTRIMP: 100, ctl: 200, hours: 36, level: RecoveryModerate},
		{name: "hard session", lastTRIMP: 100, ctl: 80, hours: 48, level: RecoveryHard},
		{name: "very hard session", lastTRIMP: 200, ctl: 100, hours: 72, level: RecoveryVeryHard},
		{name: "no fitness yet defaults ratio to 2", lastTRIMP: 200, ctl: 0, hours: 72, level: RecoveryVeryHard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateRecovery(tt.lastTRIMP, tt.ctl, nil, testNow)
			assert.Equal(t, tt.hours, got.Hours)
			assert.Equal(t, tt.level, got.Level)
			assert.Nil(t, got.HoursRemaining)
		})
	}
}

func TestEstimateRecovery_HoursRemaining(t *testing.T) {
	recent := testNow.Add(-10 * time.Hour)
	got := EstimateRecovery(20, 50, &recent, testNow)
	require.NotNil(t, got.HoursRemaining)
	assert.InDelta(t, 14, *got.HoursRemaining, 1e-9)

	old := testNow.Add(-30 * time.Hour)
	got = EstimateRecovery(20, 50, &old, testNow)
	require.NotNil(t, got.HoursRemaining)
	assert.Equal(t, 0.0, *got.HoursRemaining)
}

func TestLastSession(t *testing.T) {
	_, ok := LastSession(nil, testNow)
	assert.False(t, ok)

	acts := []TrainingActivity{
		{Date: daysAgo(3), DistanceMeters: 1},
		{Date: daysAgo(1), DistanceMeters: 2},
		{Date: daysAgo(-1), DistanceMeters: 3}, // future
	}
	last, ok := LastSession(acts, testNow)
	require.True(t, ok)
	assert.Equal(t, 2.0, last.DistanceMeters)
}
