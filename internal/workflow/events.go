package workflow

import (
	"context"

	"log/slog"

	"podslice/internal/logging"
	"podslice/internal/notifications"
	"podslice/internal/queue"
	"podslice/internal/services"
)

// emitEpisodeReady publishes the single success event for a job. Only the
// caller that won the completing stage write reaches here, which is what
// makes the event exactly-once. Delivery failure is logged, not retried:
// the job state is already committed and a duplicate event would be worse
// than a missed one.
func (m *Manager) emitEpisodeReady(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	payload := notifications.ReadyPayload{
		JobID:           job.ID,
		OwnerID:         job.RequestedBy,
		EpisodeTitle:    job.EpisodeTitle,
		AudioURI:        job.AudioURI,
		DurationSeconds: job.AudioDurationSeconds,
	}
	if err := m.notifier.EpisodeReady(ctx, payload); err != nil {
		logger.Warn("episode.ready delivery failed",
			logging.String(logging.FieldEventType, "notify_failed"),
			logging.Error(err))
		return
	}
	logger.Info("episode ready",
		logging.String(logging.FieldEventType, "episode_ready"),
		logging.String("audio_uri", job.AudioURI))
}

// emitEpisodeFailed publishes the single failure event for a job. The
// message is the classification's short reason; raw provider text stays in
// the store for operators.
func (m *Manager) emitEpisodeFailed(ctx context.Context, logger *slog.Logger, job *queue.Job, class services.Classification) {
	payload := notifications.FailedPayload{
		JobID:          job.ID,
		OwnerID:        job.RequestedBy,
		Classification: string(class),
		Message:        class.Reason(),
	}
	if err := m.notifier.EpisodeFailed(ctx, payload); err != nil {
		logger.Warn("episode.failed delivery failed",
			logging.String(logging.FieldEventType, "notify_failed"),
			logging.Error(err))
		return
	}
	logger.Info("episode failed",
		logging.String(logging.FieldEventType, "episode_failed"),
		logging.String(logging.FieldClassification, string(class)))
}
