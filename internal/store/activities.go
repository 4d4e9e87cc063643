package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

const activityColumns = `id, source, source_id, name, type, start_date,
	distance, moving_time, elapsed_time, total_elevation_gain,
	average_heartrate, max_heartrate, workout_type`

// UpsertActivity inserts or updates an activity keyed by (source, source_id)
// and returns its local ID
func (db *DB) UpsertActivity(ctx context.Context, a *Activity) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO activities (
			source, source_id, name, type, start_date,
			distance, moving_time, elapsed_time, total_elevation_gain,
			average_heartrate, max_heartrate, workout_type, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source, source_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			start_date = excluded.start_date,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			workout_type = excluded.workout_type,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`,
		a.Source, a.SourceID, a.Name, a.Type, formatTime(a.StartDate),
		a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.AverageHeartrate, a.MaxHeartrate, a.WorkoutType,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns activities ordered by start date descending
func (db *DB) ListActivities(ctx context.Context, limit, offset int) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY start_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// RunsSince returns running activities that started at or after since, oldest first.
// A zero since returns the whole history.
func (db *DB) RunsSince(ctx context.Context, since time.Time) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE type IN ('Run', 'TrailRun', 'VirtualRun') AND start_date >= ?
		ORDER BY start_date
	`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// CountActivities returns the total number of activities
func (db *DB) CountActivities(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

// LatestActivityDate returns the start of the newest activity from source,
// or the zero time when there is none
func (db *DB) LatestActivityDate(ctx context.Context, source string) (time.Time, error) {
	var latest sql.NullString
	err := db.QueryRowContext(ctx, `SELECT MAX(start_date) FROM activities WHERE source = ?`, source).Scan(&latest)
	if err != nil || !latest.Valid {
		return time.Time{}, err
	}
	return parseTime("start_date", latest.String)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanActivity scans a single activity from a row
func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var startDate string
	var elevation sql.NullFloat64
	var workoutType sql.NullInt64

	err := row.Scan(
		&a.ID, &a.Source, &a.SourceID, &a.Name, &a.Type, &startDate,
		&a.Distance, &a.MovingTime, &a.ElapsedTime, &elevation,
		&a.AverageHeartrate, &a.MaxHeartrate, &workoutType,
	)
	if err != nil {
		return nil, err
	}

	a.StartDate, err = parseTime("start_date", startDate)
	if err != nil {
		return nil, err
	}
	a.TotalElevationGain = elevation.Float64
	if workoutType.Valid {
		wt := int(workoutType.Int64)
		a.WorkoutType = &wt
	}
	return &a, nil
}

// scanActivities scans multiple activities from rows
func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// formatTime stores times as RFC3339 in UTC so text comparison orders them
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", column, value, err)
	}
	return t, nil
}
