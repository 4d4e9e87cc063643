package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"racetime/internal/analysis"
	"racetime/internal/store"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// easyRuns returns n 8 km runs at 5:30/km and HR 140, one every 4 days
func easyRuns(n int) []analysis.TrainingActivity {
	out := make([]analysis.TrainingActivity, n)
	for i := range out {
		out[i] = analysis.TrainingActivity{
			Date:             daysAgo(1 + 4*i),
			DistanceMeters:   8000,
			DurationSeconds:  2640,
			AverageHeartRate: floatPtr(140),
		}
	}
	return out
}

type fakeHistory struct {
	data  *store.PredictionData
	err   error
	calls atomic.Int32
	weeks atomic.Int32
}

func (f *fakeHistory) GetPredictionData(ctx context.Context, weeksBack int) (*store.PredictionData, error) {
	f.calls.Add(1)
	f.weeks.Store(int32(weeksBack))
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []*store.PredictionRun
	fail bool
}

func (f *fakeRuns) SavePredictionRun(ctx context.Context, run *store.PredictionRun) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRuns) PrunePredictionRuns(ctx context.Context, keep int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.runs) > keep {
		f.runs = f.runs[len(f.runs)-keep:]
	}
	return nil
}

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
