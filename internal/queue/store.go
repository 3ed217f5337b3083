package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"podslice/internal/config"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// timeColumnFormat keeps a fixed-width fraction so the lexical comparisons
// SQLite performs on timestamp columns match chronological order.
// time.RFC3339Nano trims trailing zeros and would break that within a second.
const timeColumnFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeColumnFormat)
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// NewJobParams captures a validated submission.
type NewJobParams struct {
	RequestedBy string
	SourceType  SourceType
	SourceRef   string
	VoiceID     string
}

// NewJob inserts a job at the queued stage.
func (s *Store) NewJob(ctx context.Context, params NewJobParams) (*Job, error) {
	if strings.TrimSpace(params.RequestedBy) == "" {
		return nil, errors.New("requested_by is required")
	}
	if strings.TrimSpace(params.SourceRef) == "" {
		return nil, errors.New("source_ref is required")
	}

	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            requested_by, source_type, source_ref, voice_id,
            stage, tts_provider, stage_attempts, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.RequestedBy,
		string(params.SourceType),
		params.SourceRef,
		nullableString(params.VoiceID),
		StageQueued,
		TTSPrimary,
		"{}",
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. A missing job returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by stage set (or all jobs when no stage is provided).
func (s *Store) List(ctx context.Context, stages ...Stage) ([]*Job, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(stages) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(stages))
		args := make([]any, len(stages))
		for i, stage := range stages {
			args[i] = stage
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE stage IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// NextReady returns the oldest non-terminal job whose backoff gate has
// passed, excluding the provided identifiers (jobs already being advanced by
// this process).
func (s *Store) NextReady(ctx context.Context, now time.Time, excludeIDs ...int64) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
        WHERE stage NOT IN (?, ?)
          AND (next_attempt_at IS NULL OR next_attempt_at <= ?)`
	args := []any{StageCompleted, StageFailed, formatTime(now)}
	if len(excludeIDs) > 0 {
		query += ` AND id NOT IN (` + makePlaceholders(len(excludeIDs)) + `)`
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next ready job: %w", err)
	}
	return job, nil
}

// Stats returns a count of jobs grouped by stage.
func (s *Store) Stats(ctx context.Context) (map[Stage]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stage, COUNT(1) FROM jobs GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Stage]int)
	for rows.Next() {
		var stage Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats[stage] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for stage, count := range stats {
		health.Total += count
		switch stage {
		case StageQueued:
			health.Queued += count
		case StageCompleted:
			health.Completed += count
		case StageFailed:
			health.Failed += count
		default:
			health.Processing += count
		}
	}
	return health, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const jobColumns = "id, requested_by, source_type, source_ref, voice_id, stage, tts_provider, stage_attempts, next_attempt_at, last_error_classification, last_error_message, transcript, source_duration_seconds, summary_json, script, episode_title, audio_file, audio_key, audio_uri, audio_duration_seconds, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		requestedBy      string
		sourceType       string
		sourceRef        string
		voiceID          sql.NullString
		stage            string
		ttsProvider      string
		attemptsRaw      sql.NullString
		nextAttemptRaw   sql.NullString
		lastErrClass     sql.NullString
		lastErrMessage   sql.NullString
		transcript       sql.NullString
		sourceDuration   sql.NullFloat64
		summaryJSON      sql.NullString
		script           sql.NullString
		episodeTitle     sql.NullString
		audioFile        sql.NullString
		audioKey         sql.NullString
		audioURI         sql.NullString
		audioDuration    sql.NullFloat64
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&requestedBy,
		&sourceType,
		&sourceRef,
		&voiceID,
		&stage,
		&ttsProvider,
		&attemptsRaw,
		&nextAttemptRaw,
		&lastErrClass,
		&lastErrMessage,
		&transcript,
		&sourceDuration,
		&summaryJSON,
		&script,
		&episodeTitle,
		&audioFile,
		&audioKey,
		&audioURI,
		&audioDuration,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:                      id,
		RequestedBy:             requestedBy,
		SourceType:              SourceType(sourceType),
		SourceRef:               sourceRef,
		VoiceID:                 voiceID.String,
		Stage:                   Stage(stage),
		TTSProvider:             TTSProvider(ttsProvider),
		StageAttempts:           unmarshalAttempts(attemptsRaw.String),
		LastErrorClassification: lastErrClass.String,
		LastErrorMessage:        lastErrMessage.String,
		Transcript:              transcript.String,
		SourceDurationSeconds:   sourceDuration.Float64,
		SummaryJSON:             summaryJSON.String,
		Script:                  script.String,
		EpisodeTitle:            episodeTitle.String,
		AudioFile:               audioFile.String,
		AudioKey:                audioKey.String,
		AudioURI:                audioURI.String,
		AudioDurationSeconds:    audioDuration.Float64,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if nextAttemptRaw.Valid {
		if next, err := parseTimeString(nextAttemptRaw.String); err == nil {
			job.NextAttemptAt = &next
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
