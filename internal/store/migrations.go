package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		// Activities from Strava, FIT imports or manual entry
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			source_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			distance REAL NOT NULL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			total_elevation_gain REAL,
			average_heartrate REAL,
			max_heartrate REAL,
			workout_type INTEGER,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (source, source_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(type)`,

		// Race results, entered by hand or flagged as races on Strava
		`CREATE TABLE IF NOT EXISTS races (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			activity_id INTEGER UNIQUE,
			name TEXT NOT NULL,
			distance_meters REAL NOT NULL,
			time_seconds REAL NOT NULL,
			race_date TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE SET NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_races_date ON races(race_date)`,

		// One row per generatePredictions run
		`CREATE TABLE IF NOT EXISTS prediction_runs (
			id TEXT PRIMARY KEY,
			computed_at TEXT NOT NULL,
			weeks_back INTEGER NOT NULL,
			data_source TEXT NOT NULL,
			data_quality_score REAL NOT NULL,
			data_quality_level TEXT NOT NULL,
			profile_exponent REAL NOT NULL,
			profile_confidence REAL NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_prediction_runs_computed ON prediction_runs(computed_at)`,

		`CREATE TABLE IF NOT EXISTS race_predictions (
			run_id TEXT NOT NULL,
			target_name TEXT NOT NULL,
			target_meters REAL NOT NULL,
			predicted_seconds REAL NOT NULL,
			confidence REAL NOT NULL,
			lower_seconds REAL NOT NULL,
			upper_seconds REAL NOT NULL,
			method TEXT NOT NULL,
			PRIMARY KEY (run_id, target_name),
			FOREIGN KEY (run_id) REFERENCES prediction_runs(id) ON DELETE CASCADE
		)`,

		// Sync state (key-value)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
