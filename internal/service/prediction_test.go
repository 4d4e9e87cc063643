package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racetime/internal/analysis"
	"racetime/internal/store"
)

func newPredictionService(h HistorySource, runs RunStore) *PredictionService {
	s := NewPredictionService(h, runs, nil, nil, false)
	s.now = func() time.Time { return testNow }
	return s
}

func scenarioARaces() []analysis.RacePerformance {
	return []analysis.RacePerformance{
		{DistanceMeters: 5000, TimeSeconds: 1200, Date: daysAgo(10), Name: "Parkrun"},
		{DistanceMeters: 10000, TimeSeconds: 2520, Date: daysAgo(40), Name: "City 10K Race"},
	}
}

func TestGeneratePredictionsScenarioA(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{RecentRaces: scenarioARaces(), Activities: easyRuns(20)}}
	runs := &fakeRuns{}
	s := newPredictionService(h, runs)

	report, err := s.GeneratePredictions(context.Background(), PredictionRequest{WeeksBack: 12})
	require.NoError(t, err)
	assert.Equal(t, int32(12), h.weeks.Load())
	assert.Equal(t, int32(1), h.calls.Load(), "history is fetched once")

	require.Len(t, report.Predictions, 4)
	for _, key := range []string{"5k", "10k", "half", "marathon"} {
		require.Contains(t, report.Predictions, key)
	}
	assert.InEpsilon(t, 1200, report.Predictions["5k"].PredictedTimeSeconds, 0.05)

	ordered := report.Ordered()
	for i := 1; i < len(ordered); i++ {
		assert.GreaterOrEqual(t, ordered[i].Result.PaceSecondsPerKm(), ordered[i-1].Result.PaceSecondsPerKm(),
			"%s pace should not beat %s", ordered[i].Name, ordered[i-1].Name)
	}
	for _, p := range ordered {
		assert.GreaterOrEqual(t, p.Result.Confidence, 0.3)
		assert.LessOrEqual(t, p.Result.Confidence, 0.85)
	}

	assert.Equal(t, analysis.SourceRaces, report.DataSource)
	assert.Equal(t, testNow, report.LastUpdated)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.EnduranceProfile.BaseRaceCount)

	require.Len(t, runs.runs, 1)
	saved := runs.runs[0]
	assert.Equal(t, report.RunID, saved.ID)
	assert.Equal(t, 12, saved.WeeksBack)
	assert.Len(t, saved.Predictions, 4)
}

func TestGeneratePredictionsScenarioB(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{Activities: easyRuns(20)}}
	s := newPredictionService(h, nil)

	report, err := s.GeneratePredictions(context.Background(), PredictionRequest{})
	require.NoError(t, err)
	require.Len(t, report.Predictions, 4)
	for name, p := range report.Predictions {
		assert.LessOrEqual(t, p.Confidence, 0.4, name)
		assert.Greater(t, p.PredictedTimeSeconds, 0.0, name)
	}
	assert.Equal(t, analysis.SourceTraining, report.DataSource)
}

func TestGeneratePredictionsInsufficientData(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{Activities: easyRuns(1)}}
	s := newPredictionService(h, nil)

	_, err := s.GeneratePredictions(context.Background(), PredictionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 0, ide.Races)
	assert.Equal(t, 1, ide.Activities)
	assert.NotEmpty(t, ide.Guidance)
}

func TestGeneratePredictionsFetchError(t *testing.T) {
	cause := errors.New("database is locked")
	s := newPredictionService(&fakeHistory{err: cause}, nil)

	_, err := s.GeneratePredictions(context.Background(), PredictionRequest{})
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, cause)
}

func TestGeneratePredictionsCustomDistances(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{RecentRaces: scenarioARaces(), Activities: easyRuns(10)}}
	s := newPredictionService(h, nil)

	report, err := s.GeneratePredictions(context.Background(), PredictionRequest{
		CustomDistances: []float64{15000, 5000, 15000},
	})
	require.NoError(t, err)
	assert.Len(t, report.Predictions, 5)
	require.Contains(t, report.Predictions, "15k")

	p := report.Predictions["15k"]
	assert.Greater(t, p.PredictedTimeSeconds, report.Predictions["10k"].PredictedTimeSeconds)
	assert.Less(t, p.PredictedTimeSeconds, report.Predictions["half"].PredictedTimeSeconds)
}

func TestGeneratePredictionsInvalidRequest(t *testing.T) {
	s := newPredictionService(&fakeHistory{data: &store.PredictionData{}}, nil)

	tests := []struct {
		name string
		req  PredictionRequest
	}{
		{"negative weeks", PredictionRequest{WeeksBack: -1}},
		{"tiny custom distance", PredictionRequest{CustomDistances: []float64{10}}},
		{"negative days until race", PredictionRequest{DaysUntilRace: intPtr(-3)}},
		{"absurd temperature", PredictionRequest{Conditions: &analysis.RaceConditions{Temperature: floatPtr(80)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.GeneratePredictions(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestGeneratePredictionsWithConditions(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{RecentRaces: scenarioARaces(), Activities: easyRuns(20)}}
	s := newPredictionService(h, nil)

	ctx := context.Background()
	heat := &analysis.RaceConditions{Temperature: floatPtr(30)}

	plain, err := s.GeneratePredictions(ctx, PredictionRequest{DaysUntilRace: intPtr(14)})
	require.NoError(t, err)
	hot, err := s.GeneratePredictions(ctx, PredictionRequest{DaysUntilRace: intPtr(14), Conditions: heat})
	require.NoError(t, err)

	assert.Greater(t, hot.Predictions["10k"].PredictedTimeSeconds, plain.Predictions["10k"].PredictedTimeSeconds)
	assert.NotEqual(t, plain.RunID, hot.RunID)

	// without a race date the conditions are ignored
	undated, err := s.GeneratePredictions(ctx, PredictionRequest{})
	require.NoError(t, err)
	undatedHot, err := s.GeneratePredictions(ctx, PredictionRequest{Conditions: heat})
	require.NoError(t, err)
	for name, p := range undated.Predictions {
		assert.Equal(t, p.PredictedTimeSeconds, undatedHot.Predictions[name].PredictedTimeSeconds, name)
	}
}

func TestGeneratePredictionsPersistFailureIsNotFatal(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{RecentRaces: scenarioARaces()}}
	s := newPredictionService(h, &fakeRuns{fail: true})

	report, err := s.GeneratePredictions(context.Background(), PredictionRequest{})
	require.NoError(t, err)
	assert.Len(t, report.Predictions, 4)
}

func TestGeneratePredictionsCancelled(t *testing.T) {
	h := &fakeHistory{data: &store.PredictionData{RecentRaces: scenarioARaces()}}
	s := newPredictionService(h, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.GeneratePredictions(ctx, PredictionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneratePredictionsPersistsToStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, r := range scenarioARaces() {
		require.NoError(t, db.AddRace(ctx, &store.Race{Name: r.Name, DistanceMeters: r.DistanceMeters, TimeSeconds: r.TimeSeconds, Date: r.Date}))
	}

	s := NewPredictionService(db, db, nil, nil, true)
	report, err := s.GeneratePredictions(ctx, PredictionRequest{})
	require.NoError(t, err)

	run, err := db.GetLatestPredictionRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, run.ID)
	require.Len(t, run.Predictions, 4)
	assert.Equal(t, "5k", run.Predictions[0].TargetName)
	assert.InDelta(t, report.Predictions["5k"].PredictedTimeSeconds, run.Predictions[0].PredictedSeconds, 1e-9)
}

func TestResolveTargets(t *testing.T) {
	targets := resolveTargets([]float64{42195, 30000})
	require.Len(t, targets, 5)
	assert.Equal(t, "30k", targets[4].Name)
}
