package queue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AdvanceStage moves a job from the expected pre-stage to the next stage,
// persisting the job's artifact fields in the same statement. The write is
// guarded on the pre-stage, so of any number of concurrent callers exactly
// one observes ok=true; the rest lost the race and must treat the call as a
// no-op. Attempt counters and the backoff gate reset on success.
func (s *Store) AdvanceStage(ctx context.Context, job *Job, from, to Stage) (bool, error) {
	if job == nil {
		return false, errors.New("job is nil")
	}
	if from.Terminal() {
		return false, fmt.Errorf("cannot advance from terminal stage %s", from)
	}
	if to != StageFailed && !from.Before(to) {
		return false, fmt.Errorf("stage may only advance forward: %s -> %s", from, to)
	}

	attempts, err := marshalAttempts(job.StageAttempts)
	if err != nil {
		return false, fmt.Errorf("marshal attempts: %w", err)
	}
	now := formatTime(time.Now())

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET stage = ?, tts_provider = ?, stage_attempts = ?, next_attempt_at = NULL,
             last_error_classification = NULL, last_error_message = NULL,
             transcript = ?, source_duration_seconds = ?, summary_json = ?,
             script = ?, episode_title = ?, audio_file = ?, audio_key = ?,
             audio_uri = ?, audio_duration_seconds = ?, updated_at = ?
         WHERE id = ? AND stage = ?`,
		to,
		job.TTSProvider,
		attempts,
		nullableString(job.Transcript),
		job.SourceDurationSeconds,
		nullableString(job.SummaryJSON),
		nullableString(job.Script),
		nullableString(job.EpisodeTitle),
		nullableString(job.AudioFile),
		nullableString(job.AudioKey),
		nullableString(job.AudioURI),
		job.AudioDurationSeconds,
		now,
		job.ID,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("advance stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	job.Stage = to
	job.NextAttemptAt = nil
	job.LastErrorClassification = ""
	job.LastErrorMessage = ""
	return true, nil
}

// MarkFailed transitions a job from the expected pre-stage to failed with the
// captured failure. Guarded like AdvanceStage: only the winning caller sees
// ok=true and may emit the terminal event.
func (s *Store) MarkFailed(ctx context.Context, job *Job, from Stage, classification, message string) (bool, error) {
	if job == nil {
		return false, errors.New("job is nil")
	}
	if from.Terminal() {
		return false, fmt.Errorf("cannot fail from terminal stage %s", from)
	}

	attempts, err := marshalAttempts(job.StageAttempts)
	if err != nil {
		return false, fmt.Errorf("marshal attempts: %w", err)
	}
	now := formatTime(time.Now())

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET stage = ?, stage_attempts = ?, next_attempt_at = NULL,
             last_error_classification = ?, last_error_message = ?, updated_at = ?
         WHERE id = ? AND stage = ?`,
		StageFailed,
		attempts,
		nullableString(classification),
		nullableString(message),
		now,
		job.ID,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("mark failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	job.Stage = StageFailed
	job.NextAttemptAt = nil
	job.LastErrorClassification = classification
	job.LastErrorMessage = message
	return true, nil
}

// RecordAttempt persists the outcome of a failed-but-retryable stage attempt:
// incremented attempt counter, backoff gate, last error, and any provider
// switch. The stage itself does not change; the guard still ensures a racing
// completed transition is not clobbered.
func (s *Store) RecordAttempt(ctx context.Context, job *Job, stage Stage, nextAttemptAt *time.Time, classification, message string) (bool, error) {
	if job == nil {
		return false, errors.New("job is nil")
	}

	if job.StageAttempts == nil {
		job.StageAttempts = make(map[Stage]int)
	}
	attempts, err := marshalAttempts(job.StageAttempts)
	if err != nil {
		return false, fmt.Errorf("marshal attempts: %w", err)
	}
	now := formatTime(time.Now())

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET stage_attempts = ?, next_attempt_at = ?, tts_provider = ?,
             last_error_classification = ?, last_error_message = ?, updated_at = ?
         WHERE id = ? AND stage = ?`,
		attempts,
		nullableTime(nextAttemptAt),
		job.TTSProvider,
		nullableString(classification),
		nullableString(message),
		now,
		job.ID,
		stage,
	)
	if err != nil {
		return false, fmt.Errorf("record attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	job.NextAttemptAt = nextAttemptAt
	job.LastErrorClassification = classification
	job.LastErrorMessage = message
	return true, nil
}
