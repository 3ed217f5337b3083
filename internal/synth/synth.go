package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"podslice/internal/config"
	"podslice/internal/logging"
	"podslice/internal/queue"
	"podslice/internal/services"
	"podslice/internal/services/tts"
	"podslice/internal/stage"
)

// Synthesizer renders a job's script to staged audio.
type Synthesizer struct {
	cfg       *config.Config
	logger    *slog.Logger
	primary   tts.Synthesizer
	secondary tts.Synthesizer
}

// New constructs the synthesize stage executor using default dependencies.
func New(cfg *config.Config, logger *slog.Logger) *Synthesizer {
	return NewWithDependencies(cfg, logger,
		tts.NewClient("primary", cfg.TTS.Primary),
		tts.NewClient("secondary", cfg.TTS.Secondary),
	)
}

// NewWithDependencies allows injecting the provider pair (used in tests).
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, primary, secondary tts.Synthesizer) *Synthesizer {
	return &Synthesizer{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "synth"),
		primary:   primary,
		secondary: secondary,
	}
}

// Execute renders the script with the provider recorded on the job. The
// selection is the orchestrator's: one attempt uses exactly one provider,
// and fallback is a new attempt with the job's provider flipped.
func (s *Synthesizer) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, s.logger)
	script := strings.TrimSpace(job.Script)
	if script == "" {
		return services.Wrap(services.ErrInvalid, string(queue.StageSynthesizing), "validate inputs",
			"no script present; summarization must complete first", nil)
	}

	voiceID := strings.TrimSpace(job.VoiceID)
	if voiceID == "" {
		voiceID = strings.TrimSpace(s.cfg.TTS.DefaultVoice)
	}
	if voiceID == "" {
		return services.Wrap(services.ErrInvalid, string(queue.StageSynthesizing), "validate inputs",
			"no voice requested and no default voice configured", nil)
	}

	provider := s.providerFor(job)
	logger.Info("starting synthesis",
		logging.String(logging.FieldProvider, provider.Name()),
		logging.String("voice_id", voiceID),
		logging.Int("script_chars", len(script)))

	audio, err := provider.Synthesize(ctx, script, voiceID)
	if err != nil {
		return fmt.Errorf("synthesize with %s: %w", provider.Name(), err)
	}

	path, err := s.stageAudio(job, audio.Data)
	if err != nil {
		return services.Wrap(services.ErrTransient, string(queue.StageSynthesizing), "stage audio", "write staging file", err)
	}

	job.AudioFile = path
	job.AudioDurationSeconds = audio.DurationSeconds
	logger.Info("synthesis complete",
		logging.String(logging.FieldProvider, provider.Name()),
		logging.Int("audio_bytes", len(audio.Data)),
		logging.Float64("audio_duration_seconds", audio.DurationSeconds))
	return nil
}

func (s *Synthesizer) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(s.cfg.TTS.Primary.BaseURL) == "" {
		return stage.Unhealthy("synth", "primary TTS base URL not configured")
	}
	return stage.Healthy("synth")
}

func (s *Synthesizer) providerFor(job *queue.Job) tts.Synthesizer {
	if job.TTSProvider == queue.TTSSecondary {
		return s.secondary
	}
	return s.primary
}

// stageAudio writes the rendered audio under the staging directory. The
// filename embeds the provider so a fallback attempt never clobbers a
// half-written primary artifact.
func (s *Synthesizer) stageAudio(job *queue.Job, data []byte) (string, error) {
	dir := filepath.Join(s.cfg.Paths.StagingDir, fmt.Sprintf("job-%d", job.ID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("audio-%s.mp3", job.TTSProvider))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
