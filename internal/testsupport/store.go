package testsupport

import (
	"context"
	"testing"

	"podslice/internal/config"
	"podslice/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewVideoJob creates a video job for tests using the provided store.
func NewVideoJob(t testing.TB, store *queue.Store, sourceRef string) *queue.Job {
	t.Helper()

	job, err := store.NewJob(context.Background(), queue.NewJobParams{
		RequestedBy: "user-test",
		SourceType:  queue.SourceVideo,
		SourceRef:   sourceRef,
		VoiceID:     "narrator-warm",
	})
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return job
}
