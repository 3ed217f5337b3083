package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"podslice/internal/config"
	"podslice/internal/logging"
	"podslice/internal/queue"
	"podslice/internal/services"
	"podslice/internal/services/transcription"
	"podslice/internal/stage"
)

// Transcriber resolves a job's source into a transcript.
type Transcriber struct {
	cfg    *config.Config
	logger *slog.Logger
	client transcription.Transcriber
}

// New constructs the transcribe stage executor using default dependencies.
func New(cfg *config.Config, logger *slog.Logger) *Transcriber {
	return NewWithDependencies(cfg, logger, transcription.NewClient(cfg.Transcription))
}

// NewWithDependencies allows injecting the transcription client (used in tests).
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, client transcription.Transcriber) *Transcriber {
	return &Transcriber{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "transcriber"),
		client: client,
	}
}

func (t *Transcriber) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)

	sources, err := resolveSources(job)
	if err != nil {
		return err
	}
	logger.Info("starting transcription",
		logging.String("source_type", string(job.SourceType)),
		logging.Int("sources", len(sources)))

	var (
		combined strings.Builder
		duration float64
	)
	for i, source := range sources {
		result, err := t.client.Transcribe(ctx, source)
		if err != nil {
			// The adapter already classified this; keep its marker intact.
			return fmt.Errorf("transcribe source %d of %d: %w", i+1, len(sources), err)
		}
		if combined.Len() > 0 {
			combined.WriteString("\n\n")
		}
		combined.WriteString(strings.TrimSpace(result.Text))
		duration += result.DurationSeconds
	}

	job.Transcript = combined.String()
	job.SourceDurationSeconds = duration
	logger.Info("transcription complete",
		logging.Int("transcript_chars", len(job.Transcript)),
		logging.Float64("source_duration_seconds", duration))
	return nil
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(t.cfg.Transcription.BaseURL) == "" {
		return stage.Unhealthy("transcriber", "transcription base URL not configured")
	}
	return stage.Healthy("transcriber")
}

// resolveSources expands the job's source reference into the list of URLs to
// transcribe. Shape problems that submission validation could not have seen
// (a non-media scheme, an empty news source list) classify as unsupported.
func resolveSources(job *queue.Job) ([]string, error) {
	ref := strings.TrimSpace(job.SourceRef)
	if ref == "" {
		return nil, services.Wrap(services.ErrInvalid, string(queue.StageTranscribing), "resolve source", "source reference is empty", nil)
	}

	switch job.SourceType {
	case queue.SourceVideo:
		if err := validateMediaURL(ref); err != nil {
			return nil, err
		}
		return []string{ref}, nil
	case queue.SourceNews:
		_, urls, err := ParseNewsRef(ref)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if err := validateMediaURL(u); err != nil {
				return nil, err
			}
		}
		return urls, nil
	default:
		return nil, services.Wrap(services.ErrUnsupported, string(queue.StageTranscribing), "resolve source",
			fmt.Sprintf("unknown source type %q", job.SourceType), nil)
	}
}

// ParseNewsRef splits a news source reference of the form
// "topic|url[,url...]" into its topic and source URLs.
func ParseNewsRef(ref string) (topic string, urls []string, err error) {
	topic, rest, found := strings.Cut(ref, "|")
	topic = strings.TrimSpace(topic)
	if !found || topic == "" {
		return "", nil, services.Wrap(services.ErrUnsupported, string(queue.StageTranscribing), "parse news source",
			"expected topic|url[,url...]", nil)
	}
	for _, part := range strings.Split(rest, ",") {
		if part = strings.TrimSpace(part); part != "" {
			urls = append(urls, part)
		}
	}
	if len(urls) == 0 {
		return "", nil, services.Wrap(services.ErrUnsupported, string(queue.StageTranscribing), "parse news source",
			"news topic has no source URLs", nil)
	}
	return topic, urls, nil
}

func validateMediaURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return services.Wrap(services.ErrUnsupported, string(queue.StageTranscribing), "resolve source",
			fmt.Sprintf("not a fetchable media URL: %s", raw), nil)
	}
	return nil
}
