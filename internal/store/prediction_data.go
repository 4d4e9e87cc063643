package store

import (
	"context"
	"fmt"
	"time"

	"racetime/internal/analysis"
)

// windowStart returns the start of a weeksBack window; weeksBack <= 0 means all history
func windowStart(now time.Time, weeksBack int) time.Time {
	if weeksBack <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -7*weeksBack)
}

// GetPredictionData loads races and running activities from the last weeksBack weeks
// as canonical analysis records
func (db *DB) GetPredictionData(ctx context.Context, weeksBack int) (*PredictionData, error) {
	since := windowStart(time.Now(), weeksBack)

	races, err := db.RacesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading races: %w", err)
	}
	runs, err := db.RunsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	data := &PredictionData{
		RecentRaces: make([]analysis.RacePerformance, 0, len(races)),
		Activities:  make([]analysis.TrainingActivity, 0, len(runs)),
	}
	for _, r := range races {
		data.RecentRaces = append(data.RecentRaces, r.Performance())
	}
	for _, a := range runs {
		data.Activities = append(data.Activities, a.TrainingActivity())
	}
	return data, nil
}

// GetAllPersonalBests returns the best time per standard distance from races and
// runs within the last weeksBack weeks
func (db *DB) GetAllPersonalBests(ctx context.Context, weeksBack int) ([]analysis.PersonalBest, error) {
	data, err := db.GetPredictionData(ctx, weeksBack)
	if err != nil {
		return nil, err
	}
	return analysis.FindPersonalBests(data.RecentRaces, data.Activities, time.Time{}), nil
}
