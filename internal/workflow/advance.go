package workflow

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"podslice/internal/logging"
	"podslice/internal/queue"
	"podslice/internal/services"
	"podslice/internal/stage"
)

// Advance performs one bounded, idempotent step for the job: activate a
// queued job, or run the current stage's executor and commit the outcome.
// Terminal and backoff-gated jobs are no-ops. Concurrent duplicate calls
// are safe; the optimistic stage guard lets exactly one caller commit each
// transition.
//
// Advance returns an error only when the step itself could not run or
// commit (missing job, store failure). A stage attempt that failed but
// whose outcome was durably recorded is a completed step.
func (m *Manager) Advance(ctx context.Context, jobID int64) error {
	job, err := m.store.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %d: %w", jobID, err)
	}
	if job == nil {
		return fmt.Errorf("job %d not found", jobID)
	}
	if job.Stage.Terminal() {
		return nil
	}
	now := time.Now().UTC()
	if !job.Ready(now) {
		return nil
	}

	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithStage(ctx, string(job.Stage))
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	if job.Stage == queue.StageQueued {
		return m.activate(ctx, logger, job)
	}
	return m.runStage(ctx, logger, job)
}

// activate moves a queued job into the pipeline. No executor runs; the
// transition only claims the work.
func (m *Manager) activate(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	won, err := m.store.AdvanceStage(ctx, job, queue.StageQueued, queue.StageTranscribing)
	if err != nil {
		return fmt.Errorf("activate job: %w", err)
	}
	if !won {
		logger.Debug("activation lost to a concurrent caller")
		return nil
	}
	logger.Info("job activated",
		logging.String(logging.FieldEventType, "job_activated"))
	return nil
}

func (m *Manager) runStage(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	from := job.Stage
	executor, ok := m.executors[from]
	if !ok {
		return fmt.Errorf("no executor for stage %s", from)
	}
	next, ok := from.Next()
	if !ok {
		return fmt.Errorf("stage %s has no successor", from)
	}

	attempt := job.Attempts(from) + 1
	started := time.Now()
	logger.Info("stage attempt started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int(logging.FieldAttempt, attempt),
		logging.String(logging.FieldProvider, string(job.TTSProvider)))

	execErr := m.executeOnce(ctx, executor, job, from)
	if execErr == nil {
		won, err := m.store.AdvanceStage(ctx, job, from, next)
		if err != nil {
			return fmt.Errorf("commit stage result: %w", err)
		}
		if !won {
			logger.Debug("stage result lost to a concurrent caller; discarding")
			return nil
		}
		logger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.String("next_stage", string(next)),
			logging.Duration("stage_duration", time.Since(started)))
		if next == queue.StageCompleted {
			m.emitEpisodeReady(ctx, logger, job)
		}
		return nil
	}
	return m.handleStageFailure(ctx, logger, job, from, attempt, execErr)
}

// executeOnce runs a single executor attempt under the stage's hard timeout,
// converting panics into ordinary errors so one poisoned job cannot take the
// daemon down.
func (m *Manager) executeOnce(ctx context.Context, executor stage.Executor, job *queue.Job, from queue.Stage) (err error) {
	execCtx, cancel := context.WithTimeout(ctx, m.stageTimeout(from))
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", from, r)
		}
	}()
	return executor.Execute(execCtx, job)
}

// handleStageFailure classifies the error, applies retry policy, and
// durably records the outcome: a backoff-gated retry, a provider flip, or a
// terminal failure with its event.
func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, job *queue.Job, from queue.Stage, attempt int, execErr error) error {
	class := services.ClassificationOf(execErr)
	detail := services.Message(execErr)

	if job.StageAttempts == nil {
		job.StageAttempts = make(map[queue.Stage]int)
	}
	job.StageAttempts[from] = attempt

	ceiling := m.policy.attemptCeiling(from, class)
	logger.Warn("stage attempt failed",
		logging.String(logging.FieldEventType, "stage_failed"),
		logging.String(logging.FieldClassification, string(class)),
		logging.Int(logging.FieldAttempt, attempt),
		logging.Int("attempt_ceiling", ceiling),
		logging.Error(execErr))

	if !class.Retryable() || attempt >= ceiling {
		won, err := m.store.MarkFailed(ctx, job, from, string(class), detail)
		if err != nil {
			return fmt.Errorf("commit terminal failure: %w", err)
		}
		if !won {
			logger.Debug("terminal failure lost to a concurrent caller")
			return nil
		}
		m.emitEpisodeFailed(ctx, logger, job, class)
		return nil
	}

	// The primary TTS provider only gets its first attempts; once spent on
	// transient failures, the job's selection flips and stays flipped for
	// the rest of its life. Quota and other retryable classes keep the
	// primary, since they say nothing about the provider being unhealthy.
	if from == queue.StageSynthesizing && class == services.ClassTransient &&
		job.TTSProvider == queue.TTSPrimary && attempt >= primaryAttemptLimit {
		job.TTSProvider = queue.TTSSecondary
		logger.Info("falling back to secondary synthesis provider",
			logging.String(logging.FieldEventType, "tts_fallback"),
			logging.Int(logging.FieldAttempt, attempt))
	}

	gate := time.Now().UTC().Add(m.policy.backoffDelay(class, attempt))
	won, err := m.store.RecordAttempt(ctx, job, from, &gate, string(class), detail)
	if err != nil {
		return fmt.Errorf("commit retry attempt: %w", err)
	}
	if !won {
		logger.Debug("retry record lost to a concurrent caller")
		return nil
	}
	logger.Info("stage retry scheduled",
		logging.String(logging.FieldEventType, "stage_retry_scheduled"),
		logging.String("next_attempt_at", gate.Format(time.RFC3339)))
	return nil
}
