package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtrapolateFromRaces_SingleRace(t *testing.T) {
	races := []RacePerformance{{Name: "tempo", DistanceMeters: 5000, TimeSeconds: 1200, Date: testNow}}

	got, ok := ExtrapolateFromRaces(10000, races, 1.06, testNow)

	require.True(t, ok)
	assert.InDelta(t, 1200*math.Pow(2, 1.06), got.Seconds(), 1e-6)
	// weight = recency 1 * similarity exp(-ln2/2) * quality 1.1
	wantWeight := math.Exp(-math.Log(2)/2) * 1.1
	assert.InDelta(t, wantWeight, got.TotalWeight, 1e-9)
	assert.InDelta(t, wantWeight/2, got.Confidence, 1e-9)
	assert.Equal(t, 1, got.RacesUsed)
}

func TestExtrapolateFromRaces_SkipsDistantRatios(t *testing.T) {
	races := []RacePerformance{{DistanceMeters: 1000, TimeSeconds: 200, Date: daysAgo(3)}}

	_, ok := ExtrapolateFromRaces(DistanceMarathon, races, 1.06, testNow)

	assert.False(t, ok)
}

func TestExtrapolateFromRaces_UsesSixMostRecent(t *testing.T) {
	var races []RacePerformance
	for i := 0; i < 8; i++ {
		races = append(races, RacePerformance{DistanceMeters: 5000, TimeSeconds: 1200, Date: daysAgo(i * 7)})
	}
	// a very old outlier that must not be considered
	races = append(races, RacePerformance{DistanceMeters: 5000, TimeSeconds: 1800, Date: daysAgo(400)})

	got, ok := ExtrapolateFromRaces(5000, races, 1.06, testNow)

	require.True(t, ok)
	assert.Equal(t, 6, got.RacesUsed)
	assert.InDelta(t, 1200, got.Seconds(), 1e-6)
	assert.LessOrEqual(t, got.Confidence, 0.9)
}

func TestExtrapolateFromRaces_IgnoresShortRaces(t *testing.T) {
	races := []RacePerformance{{DistanceMeters: 800, TimeSeconds: 150, Date: daysAgo(1)}}

	_, ok := ExtrapolateFromRaces(1600, races, 1.06, testNow)

	assert.False(t, ok)
}
