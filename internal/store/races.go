package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// ErrRaceNotFound is returned when a race doesn't exist
var ErrRaceNotFound = errors.New("race not found")

const raceColumns = `id, activity_id, name, distance_meters, time_seconds, race_date, tags`

// AddRace inserts a race result and sets its ID
func (db *DB) AddRace(ctx context.Context, r *Race) error {
	result, err := db.ExecContext(ctx, `
		INSERT INTO races (activity_id, name, distance_meters, time_seconds, race_date, tags)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ActivityID, r.Name, r.DistanceMeters, r.TimeSeconds, formatTime(r.Date), joinTags(r.Tags))
	if err != nil {
		return err
	}
	r.ID, err = result.LastInsertId()
	return err
}

// UpsertRaceForActivity records a race flagged on an activity, keeping one race per activity
func (db *DB) UpsertRaceForActivity(ctx context.Context, r *Race) error {
	if r.ActivityID == nil {
		return db.AddRace(ctx, r)
	}
	return db.QueryRowContext(ctx, `
		INSERT INTO races (activity_id, name, distance_meters, time_seconds, race_date, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(activity_id) DO UPDATE SET
			name = excluded.name,
			distance_meters = excluded.distance_meters,
			time_seconds = excluded.time_seconds,
			race_date = excluded.race_date,
			tags = excluded.tags
		RETURNING id
	`, r.ActivityID, r.Name, r.DistanceMeters, r.TimeSeconds, formatTime(r.Date), joinTags(r.Tags)).Scan(&r.ID)
}

// GetRace retrieves a race by ID
func (db *DB) GetRace(ctx context.Context, id int64) (*Race, error) {
	row := db.QueryRowContext(ctx, `SELECT `+raceColumns+` FROM races WHERE id = ?`, id)
	r, err := scanRace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRaceNotFound
	}
	return r, err
}

// RacesSince returns races on or after since, newest first. A zero since returns all.
func (db *DB) RacesSince(ctx context.Context, since time.Time) ([]Race, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+raceColumns+`
		FROM races
		WHERE race_date >= ?
		ORDER BY race_date DESC
	`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var races []Race
	for rows.Next() {
		r, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		races = append(races, *r)
	}
	return races, rows.Err()
}

// DeleteRace removes a race
func (db *DB) DeleteRace(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM races WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrRaceNotFound)
}

func scanRace(row rowScanner) (*Race, error) {
	var r Race
	var activityID sql.NullInt64
	var date, tags string

	if err := row.Scan(&r.ID, &activityID, &r.Name, &r.DistanceMeters, &r.TimeSeconds, &date, &tags); err != nil {
		return nil, err
	}

	var err error
	r.Date, err = parseTime("race_date", date)
	if err != nil {
		return nil, err
	}
	if activityID.Valid {
		id := activityID.Int64
		r.ActivityID = &id
	}
	r.Tags = splitTags(tags)
	return &r, nil
}

func joinTags(tags []string) string {
	var clean []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
