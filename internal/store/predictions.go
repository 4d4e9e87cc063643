package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrPredictionNotFound is returned when no prediction run is stored
var ErrPredictionNotFound = errors.New("prediction not found")

// SavePredictionRun stores a run and its per-distance predictions in one transaction
func (db *DB) SavePredictionRun(ctx context.Context, run *PredictionRun) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO prediction_runs (
			id, computed_at, weeks_back, data_source, data_quality_score,
			data_quality_level, profile_exponent, profile_confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, formatTime(run.ComputedAt), run.WeeksBack, run.DataSource, run.DataQualityScore,
		run.DataQualityLevel, run.ProfileExponent, run.ProfileConfidence,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, p := range run.Predictions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO race_predictions (
				run_id, target_name, target_meters, predicted_seconds,
				confidence, lower_seconds, upper_seconds, method
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, p.TargetName, p.TargetMeters, p.PredictedSeconds,
			p.Confidence, p.LowerSeconds, p.UpperSeconds, p.Method,
		)
		if err != nil {
			return fmt.Errorf("inserting prediction %s: %w", p.TargetName, err)
		}
	}

	return tx.Commit()
}

// GetLatestPredictionRun retrieves the most recent run with its predictions ordered by distance
func (db *DB) GetLatestPredictionRun(ctx context.Context) (*PredictionRun, error) {
	var run PredictionRun
	var computedAt string
	err := db.QueryRowContext(ctx, `
		SELECT id, computed_at, weeks_back, data_source, data_quality_score,
			data_quality_level, profile_exponent, profile_confidence
		FROM prediction_runs
		ORDER BY computed_at DESC, rowid DESC
		LIMIT 1
	`).Scan(
		&run.ID, &computedAt, &run.WeeksBack, &run.DataSource, &run.DataQualityScore,
		&run.DataQualityLevel, &run.ProfileExponent, &run.ProfileConfidence,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPredictionNotFound
	}
	if err != nil {
		return nil, err
	}
	if run.ComputedAt, err = parseTime("computed_at", computedAt); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT target_name, target_meters, predicted_seconds, confidence,
			lower_seconds, upper_seconds, method
		FROM race_predictions
		WHERE run_id = ?
		ORDER BY target_meters
	`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p RacePrediction
		if err := rows.Scan(
			&p.TargetName, &p.TargetMeters, &p.PredictedSeconds, &p.Confidence,
			&p.LowerSeconds, &p.UpperSeconds, &p.Method,
		); err != nil {
			return nil, err
		}
		run.Predictions = append(run.Predictions, p)
	}
	return &run, rows.Err()
}

// PrunePredictionRuns keeps only the newest keep runs
func (db *DB) PrunePredictionRuns(ctx context.Context, keep int) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM prediction_runs
		WHERE id NOT IN (
			SELECT id FROM prediction_runs ORDER BY computed_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	return err
}
