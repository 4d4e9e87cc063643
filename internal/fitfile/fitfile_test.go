package fitfile

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"

	"racetime/internal/store"
)

func TestFromSession(t *testing.T) {
	start := time.Date(2026, 9, 20, 7, 15, 0, 0, time.UTC)

	s := fit.NewSessionMsg()
	s.Sport = fit.SportRunning
	s.SubSport = fit.SubSportTrail
	s.StartTime = start
	s.TotalDistance = 1000000  // cm scale: 10 km
	s.TotalTimerTime = 3000000 // ms scale: 3000 s
	s.TotalElapsedTime = 3100000
	s.AvgHeartRate = 152
	s.MaxHeartRate = math.MaxUint8 // invalid
	s.TotalAscent = 240

	a := FromSession(s)
	assert.Equal(t, store.SourceFIT, a.Source)
	assert.Equal(t, "TrailRun", a.Type)
	assert.True(t, a.StartDate.Equal(start))
	assert.InDelta(t, 10000, a.Distance, 1e-6)
	assert.Equal(t, 3000, a.MovingTime)
	assert.Equal(t, 3100, a.ElapsedTime)
	assert.Equal(t, 240.0, a.TotalElevationGain)
	require.NotNil(t, a.AverageHeartrate)
	assert.Equal(t, 152.0, *a.AverageHeartrate)
	assert.Nil(t, a.MaxHeartrate)
	assert.True(t, a.IsRun())
}

func TestFromSessionMissingValues(t *testing.T) {
	s := fit.NewSessionMsg()
	s.Sport = fit.SportRunning
	s.TotalElapsedTime = 1800000

	a := FromSession(s)
	assert.Equal(t, "Run", a.Type)
	assert.Equal(t, 0.0, a.Distance)
	assert.Equal(t, 1800, a.MovingTime, "timer time falls back to elapsed")
	assert.Nil(t, a.AverageHeartrate)
	assert.True(t, a.StartDate.IsZero())
}

func TestActivityType(t *testing.T) {
	assert.Equal(t, "Run", activityType(fit.SportRunning, fit.SubSportTreadmill))
	assert.Equal(t, "VirtualRun", activityType(fit.SportRunning, fit.SubSportVirtualActivity))
	assert.NotEqual(t, "Run", activityType(fit.SportCycling, fit.SubSportGeneric))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not a fit file"), "junk.fit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode FIT file")
}
