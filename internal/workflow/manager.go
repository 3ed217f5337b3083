package workflow

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"podslice/internal/config"
	"podslice/internal/logging"
	"podslice/internal/notifications"
	"podslice/internal/publisher"
	"podslice/internal/queue"
	"podslice/internal/scriptgen"
	"podslice/internal/stage"
	"podslice/internal/synth"
	"podslice/internal/transcriber"
)

// Manager drives jobs through the pipeline via the Advance step function.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	notifier  notifications.Service
	executors map[queue.Stage]stage.Executor
	policy    retryPolicy

	pollInterval       time.Duration
	errorRetryInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	active  map[int64]struct{}
}

// NewManager constructs a workflow manager with the default stage executors.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Manager, error) {
	pub, err := publisher.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	executors := map[queue.Stage]stage.Executor{
		queue.StageTranscribing: transcriber.New(cfg, logger),
		queue.StageSummarizing:  scriptgen.New(cfg, logger),
		queue.StageSynthesizing: synth.New(cfg, logger),
		queue.StagePersisting:   pub,
	}
	return NewManagerWithDependencies(cfg, store, logger, notifications.NewService(cfg), executors), nil
}

// NewManagerWithDependencies allows injecting collaborators (used in tests).
func NewManagerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, executors map[queue.Stage]stage.Executor) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	errorRetryInterval := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if errorRetryInterval <= 0 {
		errorRetryInterval = 5 * time.Second
	}
	return &Manager{
		cfg:                cfg,
		store:              store,
		logger:             logging.NewComponentLogger(logger, "workflow"),
		notifier:           notifier,
		executors:          executors,
		policy:             defaultRetryPolicy(),
		pollInterval:       pollInterval,
		errorRetryInterval: errorRetryInterval,
		active:             make(map[int64]struct{}),
	}
}

// Store exposes the backing queue store for control-plane queries.
func (m *Manager) Store() *queue.Store {
	return m.store
}

// stageTimeout returns the hard per-stage budget for one executor attempt.
func (m *Manager) stageTimeout(s queue.Stage) time.Duration {
	seconds := 0
	switch s {
	case queue.StageTranscribing:
		seconds = m.cfg.Workflow.TranscribeTimeout
	case queue.StageSummarizing:
		seconds = m.cfg.Workflow.SummarizeTimeout
	case queue.StageSynthesizing:
		seconds = m.cfg.Workflow.SynthesizeTimeout
	case queue.StagePersisting:
		seconds = m.cfg.Workflow.PersistTimeout
	}
	if seconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}

// Health reports readiness of each configured stage executor.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	order := []queue.Stage{
		queue.StageTranscribing,
		queue.StageSummarizing,
		queue.StageSynthesizing,
		queue.StagePersisting,
	}
	checks := make([]stage.Health, 0, len(order))
	for _, s := range order {
		executor, ok := m.executors[s]
		if !ok {
			checks = append(checks, stage.Unhealthy(string(s), "no executor configured"))
			continue
		}
		checks = append(checks, executor.HealthCheck(ctx))
	}
	return checks
}
