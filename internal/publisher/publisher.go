package publisher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"podslice/internal/config"
	"podslice/internal/logging"
	"podslice/internal/queue"
	"podslice/internal/scripttext"
	"podslice/internal/services"
	"podslice/internal/services/objectstore"
	"podslice/internal/stage"
)

const audioContentType = "audio/mpeg"

// Publisher uploads staged audio and records the durable reference.
type Publisher struct {
	cfg    *config.Config
	logger *slog.Logger
	store  objectstore.Store
}

// New constructs the persist stage executor using default dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	store, err := objectstore.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	return NewWithDependencies(cfg, logger, store), nil
}

// NewWithDependencies allows injecting the object store (used in tests).
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, store objectstore.Store) *Publisher {
	return &Publisher{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "publisher"),
		store:  store,
	}
}

// Execute uploads the staged audio. The object key is derived from the
// content hash plus a random suffix, so a retried upload after a transient
// failure lands on a fresh key instead of clobbering or duplicating a
// half-visible object.
func (p *Publisher) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, p.logger)
	if strings.TrimSpace(job.AudioFile) == "" {
		return services.Wrap(services.ErrInvalid, string(queue.StagePersisting), "validate inputs",
			"no staged audio present; synthesis must complete first", nil)
	}

	data, err := os.ReadFile(job.AudioFile)
	if err != nil {
		return services.Wrap(services.ErrTransient, string(queue.StagePersisting), "read staged audio", job.AudioFile, err)
	}
	if len(data) == 0 {
		return services.Wrap(services.ErrInvalid, string(queue.StagePersisting), "read staged audio",
			"staged audio file is empty", nil)
	}

	key := objectKey(job, data)
	logger.Info("uploading episode audio",
		logging.String("key", key),
		logging.Int("audio_bytes", len(data)))

	uri, err := p.store.Upload(ctx, key, data, audioContentType)
	if err != nil {
		return fmt.Errorf("upload episode audio: %w", err)
	}

	job.AudioKey = key
	job.AudioURI = uri
	logger.Info("episode audio persisted", logging.String("audio_uri", uri))
	return nil
}

func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	if p.store == nil {
		return stage.Unhealthy("publisher", "object storage not configured")
	}
	return stage.Healthy("publisher")
}

// objectKey builds episodes/<jobID>/<title>-<hash8>-<uuid8>.mp3. The hash
// ties the key to the content; the random suffix keeps concurrent retries
// collision-free even for identical bytes.
func objectKey(job *queue.Job, data []byte) string {
	digest := sha256.Sum256(data)
	title := scripttext.SanitizeToken(job.EpisodeTitle)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("episodes/%d/%s-%x-%s.mp3", job.ID, title, digest[:4], suffix)
}
