package workflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"podslice/internal/logging"
	"podslice/internal/queue"
	"podslice/internal/services"
	"podslice/internal/transcriber"
)

// Request is one episode-generation submission.
type Request struct {
	SourceType  queue.SourceType
	SourceRef   string
	RequestedBy string
	VoiceID     string
}

// Submit validates the request shape and creates a queued job. Validation
// failures fail fast with invalid_input; nothing is persisted for them. All
// stage work happens asynchronously via Advance.
func (m *Manager) Submit(ctx context.Context, req Request) (int64, error) {
	if err := validateRequest(req); err != nil {
		return 0, err
	}
	job, err := m.store.NewJob(ctx, queue.NewJobParams{
		RequestedBy: strings.TrimSpace(req.RequestedBy),
		SourceType:  req.SourceType,
		SourceRef:   strings.TrimSpace(req.SourceRef),
		VoiceID:     strings.TrimSpace(req.VoiceID),
	})
	if err != nil {
		return 0, fmt.Errorf("create job: %w", err)
	}
	m.logger.Info("job submitted",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("source_type", string(req.SourceType)),
		logging.String("requested_by", job.RequestedBy))
	return job.ID, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.RequestedBy) == "" {
		return services.Wrap(services.ErrInvalid, "", "submit", "requestedBy is required", nil)
	}
	ref := strings.TrimSpace(req.SourceRef)
	if ref == "" {
		return services.Wrap(services.ErrInvalid, "", "submit", "sourceRef is required", nil)
	}

	switch req.SourceType {
	case queue.SourceVideo:
		parsed, err := url.Parse(ref)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return services.Wrap(services.ErrInvalid, "", "submit",
				fmt.Sprintf("video sourceRef must be an http(s) URL, got %q", ref), nil)
		}
	case queue.SourceNews:
		if _, _, err := transcriber.ParseNewsRef(ref); err != nil {
			return services.Wrap(services.ErrInvalid, "", "submit",
				"news sourceRef must be topic|url[,url...] with at least one source", nil)
		}
	default:
		return services.Wrap(services.ErrInvalid, "", "submit",
			fmt.Sprintf("unknown sourceType %q", req.SourceType), nil)
	}
	return nil
}
