package queue

import (
	"context"
	"fmt"
)

// Resubmit clones a failed job into a fresh queued job and returns it.
// Terminal jobs are immutable, so operator-requested retries create a new
// job from the original submission parameters instead of rewinding the old
// one.
func (s *Store) Resubmit(ctx context.Context, id int64) (*Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %d not found", id)
	}
	if job.Stage != StageFailed {
		return nil, fmt.Errorf("job %d is %s; only failed jobs can be resubmitted", id, job.Stage)
	}
	return s.NewJob(ctx, NewJobParams{
		RequestedBy: job.RequestedBy,
		SourceType:  job.SourceType,
		SourceRef:   job.SourceRef,
		VoiceID:     job.VoiceID,
	})
}

// ClearCompleted removes completed jobs. Retention is an operator decision;
// the orchestrator itself never deletes.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE stage = ?`, StageCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes failed jobs.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE stage = ?`, StageFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a terminal job by identifier. In-flight jobs may be held by
// a worker goroutine and are never deleted out from under it.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ? AND stage IN (?, ?)`, id, StageCompleted, StageFailed)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
