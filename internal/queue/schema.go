package queue

import (
	"context"
	"fmt"
)

// schemaVersion identifies the current jobs table layout. Bump when columns
// change; the database is transient so there is no migration ladder.
const schemaVersion = 3

const schemaSQL = `
CREATE TABLE IF NOT EXISTS jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    requested_by TEXT NOT NULL,
    source_type TEXT NOT NULL,
    source_ref TEXT NOT NULL,
    voice_id TEXT,
    stage TEXT NOT NULL,
    tts_provider TEXT NOT NULL DEFAULT 'primary',
    stage_attempts TEXT NOT NULL DEFAULT '{}',
    next_attempt_at TEXT,
    last_error_classification TEXT,
    last_error_message TEXT,
    transcript TEXT,
    source_duration_seconds REAL NOT NULL DEFAULT 0,
    summary_json TEXT,
    script TEXT,
    episode_title TEXT,
    audio_file TEXT,
    audio_key TEXT,
    audio_uri TEXT,
    audio_duration_seconds REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_stage ON jobs(stage);
CREATE INDEX IF NOT EXISTS idx_jobs_next_attempt_at ON jobs(next_attempt_at);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	row := s.db.QueryRowContext(ctx, `SELECT version FROM schema_info LIMIT 1`)
	switch err := row.Scan(&version); {
	case err == nil:
		if version != schemaVersion {
			return fmt.Errorf("job database schema version %d is incompatible with %d; clear the database", version, schemaVersion)
		}
	default:
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return nil
}
