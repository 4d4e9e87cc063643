package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racetime/internal/service"
)

func TestParseRaceTime(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "45", want: 45},
		{in: "19:59", want: 1199},
		{in: "1:42:07", want: 6127},
		{in: " 3:05:00 ", want: 11100},
		{in: "", wantErr: true},
		{in: "1:60", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
		{in: "fast", wantErr: true},
		{in: "0:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRaceTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "5k", want: 5000},
		{in: "half", want: 21097.5},
		{in: "Half Marathon", want: 21097.5},
		{in: "marathon", want: 42195},
		{in: "12.5km", want: 12500},
		{in: "30k", want: 30000},
		{in: "10mi", want: 16093.44},
		{in: "800m", want: 800},
		{in: "15000", want: 15000},
		{in: "-3k", wantErr: true},
		{in: "far", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDistance(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-09-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("2026-09-14T08:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 14, 6, 30, 0, 0, time.UTC), d)

	_, err = parseDate("14/09/2026")
	assert.Error(t, err)

	d, err = parseDate("")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), d, time.Minute)
}

func TestFormatRaceTime(t *testing.T) {
	assert.Equal(t, "19:59", formatRaceTime(1199.4))
	assert.Equal(t, "1:42:07", formatRaceTime(6127))
	assert.Equal(t, "-", formatRaceTime(0))
}

func TestFormatPace(t *testing.T) {
	assert.Equal(t, "4:00/km", formatPace(1200, 5000, false))
	assert.Equal(t, "6:26/mi", formatPace(1200, 5000, true))
	assert.Equal(t, "-", formatPace(1200, 0, false))
}

func TestFormatDistanceKm(t *testing.T) {
	assert.Equal(t, "5 km", formatDistanceKm(5000))
	assert.Equal(t, "21.1 km", formatDistanceKm(21097.5))
	assert.Equal(t, "42.2 km", formatDistanceKm(42195))
}

func TestRaceFromFlags(t *testing.T) {
	saved := raceAddFlags
	t.Cleanup(func() { raceAddFlags = saved })

	raceAddFlags.name = ""
	raceAddFlags.distance = "10k"
	raceAddFlags.time = "41:32"
	raceAddFlags.date = "2026-09-14"
	raceAddFlags.tags = []string{" Trail ", "race", ""}

	r, err := raceFromFlags()
	require.NoError(t, err)
	assert.Equal(t, "10k race", r.Name)
	assert.Equal(t, 10000.0, r.DistanceMeters)
	assert.Equal(t, 2492.0, r.TimeSeconds)
	assert.Equal(t, []string{"race", "trail"}, r.Tags)

	raceAddFlags.time = "soon"
	_, err = raceFromFlags()
	assert.Error(t, err)
}

func TestBuildPredictionRequestConditions(t *testing.T) {
	parse := func(args ...string) (service.PredictionRequest, error) {
		c := &cobra.Command{Use: "predict"}
		addPredictFlags(c)
		require.NoError(t, c.ParseFlags(args))
		return buildPredictionRequest(c, service.PredictionRequest{WeeksBack: 26})
	}

	_, err := parse("--temperature", "28")
	assert.ErrorIs(t, err, errConditionsNeedDate)
	_, err = parse("--flat")
	assert.ErrorIs(t, err, errConditionsNeedDate)

	req, err := parse("--days-until", "9", "--temperature", "28", "--flat", "-d", "15k")
	require.NoError(t, err)
	require.NotNil(t, req.DaysUntilRace)
	assert.Equal(t, 9, *req.DaysUntilRace)
	require.NotNil(t, req.Conditions)
	require.NotNil(t, req.Conditions.Temperature)
	assert.Equal(t, 28.0, *req.Conditions.Temperature)
	assert.True(t, req.Conditions.FlatCourse)
	assert.Nil(t, req.Conditions.WindSpeed)
	assert.Equal(t, []float64{15000}, req.CustomDistances)
	assert.Equal(t, 26, req.WeeksBack)

	req, err = parse("--days-until", "3")
	require.NoError(t, err)
	assert.Nil(t, req.Conditions)
}
