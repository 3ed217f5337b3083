package workflow

import (
	"context"
	"errors"
	"time"

	"podslice/internal/logging"
)

// Start begins background processing: a dispatcher polls for ready jobs and
// hands each to a worker that performs one Advance step. A job stays
// excluded from dispatch while a worker holds it, so two workers never step
// the same job from within this process; cross-process duplicates are
// handled by the optimistic stage guards.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.executors) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.dispatch(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight steps.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) dispatch(ctx context.Context) {
	defer m.wg.Done()

	maxParallel := m.cfg.Workflow.MaxParallelJobs
	if maxParallel <= 0 {
		maxParallel = 1
	}
	slots := make(chan struct{}, maxParallel)

	for {
		select {
		case <-ctx.Done():
			return
		case slots <- struct{}{}:
		}

		job, err := m.store.NextReady(ctx, time.Now().UTC(), m.activeIDs()...)
		if err != nil {
			<-slots
			m.logger.Error("failed to fetch next ready job",
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.Error(err))
			m.sleep(ctx, m.errorRetryInterval)
			continue
		}
		if job == nil {
			<-slots
			m.sleep(ctx, m.pollInterval)
			continue
		}

		m.claim(job.ID)
		m.wg.Add(1)
		go func(jobID int64) {
			defer m.wg.Done()
			defer func() {
				m.release(jobID)
				<-slots
			}()
			if err := m.Advance(ctx, jobID); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("advance step failed",
					logging.Int64(logging.FieldJobID, jobID),
					logging.Error(err))
			}
		}(job.ID)
	}
}

// sleep pauses the dispatch loop, returning early on cancellation.
func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) claim(id int64) {
	m.mu.Lock()
	m.active[id] = struct{}{}
	m.mu.Unlock()
}

func (m *Manager) release(id int64) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

func (m *Manager) activeIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	return ids
}
