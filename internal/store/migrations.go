package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Test sessions (one imported lactate test)
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			tested_at TEXT NOT NULL,
			unit TEXT NOT NULL,
			target_stage_duration REAL NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_tested_at ON sessions(tested_at)`,

		// Stages (measured values per stage)
		`CREATE TABLE IF NOT EXISTS stages (
			session_id TEXT NOT NULL,
			stage INTEGER NOT NULL,
			load REAL NOT NULL,
			lactate REAL NOT NULL,
			heart_rate REAL,
			vo2 REAL,
			duration REAL,
			theoretical_load REAL,
			PRIMARY KEY (session_id, stage),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,

		// Manually adjusted thresholds; a row puts the session in adjusted mode
		`CREATE TABLE IF NOT EXISTS threshold_overrides (
			session_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			lt1_load REAL,
			lt1_lactate REAL,
			lt2_load REAL,
			lt2_lactate REAL,
			zone1_upper REAL,
			zone2_upper REAL,
			zone3_upper REAL,
			zone4_upper REAL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (session_id, subject),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,

		// Last computed result per session and method
		`CREATE TABLE IF NOT EXISTS threshold_results (
			session_id TEXT NOT NULL,
			method TEXT NOT NULL,
			lt1_load REAL,
			lt1_lactate REAL,
			lt2_load REAL,
			lt2_lactate REAL,
			notes TEXT NOT NULL DEFAULT '',
			adjusted INTEGER NOT NULL DEFAULT 0,
			computed_at TEXT NOT NULL,
			PRIMARY KEY (session_id, method),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
