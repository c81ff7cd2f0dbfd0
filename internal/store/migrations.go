package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Layouts table - one calibrated drum per row
		`CREATE TABLE IF NOT EXISTS layouts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			image_path TEXT NOT NULL DEFAULT '',
			image_width INTEGER NOT NULL,
			image_height INTEGER NOT NULL,
			expected_count INTEGER NOT NULL DEFAULT 0,
			backend TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Layout tongues table - selected tongue boxes in playing order
		`CREATE TABLE IF NOT EXISTS layout_tongues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			layout_id TEXT NOT NULL REFERENCES layouts(id) ON DELETE CASCADE,
			position INTEGER NOT NULL CHECK(position >= 1),
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			confidence REAL NOT NULL,
			is_fallback INTEGER NOT NULL DEFAULT 0,
			UNIQUE(layout_id, position)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_layout_tongues_layout_id ON layout_tongues(layout_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
