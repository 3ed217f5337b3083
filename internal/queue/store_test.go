package queue_test

import (
	"context"
	"testing"
	"time"

	"podslice/internal/queue"
	"podslice/internal/testsupport"
)

func TestOpenCreatesSchemaAndInsertsJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewVideoJob(t, store, "https://example.com/talks/42")
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Stage != queue.StageQueued {
		t.Fatalf("new job stage = %s, want queued", job.Stage)
	}
	if job.TTSProvider != queue.TTSPrimary {
		t.Fatalf("new job provider = %s, want primary", job.TTSProvider)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched == nil || fetched.SourceRef != "https://example.com/talks/42" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for missing job, got %#v", job)
	}
}

func TestNewJobRequiresOwnerAndSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewJob(ctx, queue.NewJobParams{SourceType: queue.SourceVideo, SourceRef: "x"}); err == nil {
		t.Fatal("expected error without requested_by")
	}
	if _, err := store.NewJob(ctx, queue.NewJobParams{RequestedBy: "u", SourceType: queue.SourceVideo}); err == nil {
		t.Fatal("expected error without source_ref")
	}
}

func TestNextReadyHonorsBackoffGate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewVideoJob(t, store, "https://example.com/a")

	now := time.Now().UTC()
	future := now.Add(time.Hour)
	job.StageAttempts = map[queue.Stage]int{queue.StageQueued: 1}
	ok, err := store.RecordAttempt(ctx, job, queue.StageQueued, &future, "transient_provider_error", "flaky")
	if err != nil || !ok {
		t.Fatalf("RecordAttempt: ok=%v err=%v", ok, err)
	}

	if got, err := store.NextReady(ctx, now); err != nil || got != nil {
		t.Fatalf("expected no ready job before gate, got %#v err=%v", got, err)
	}
	if got, err := store.NextReady(ctx, future.Add(time.Second)); err != nil || got == nil || got.ID != job.ID {
		t.Fatalf("expected job ready after gate, got %#v err=%v", got, err)
	}
}

func TestNextReadyGateComparesSubSecondTimestamps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewVideoJob(t, store, "https://example.com/a")

	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	gate := base.Add(500 * time.Millisecond)
	job.StageAttempts = map[queue.Stage]int{queue.StageQueued: 1}
	ok, err := store.RecordAttempt(ctx, job, queue.StageQueued, &gate, "transient_provider_error", "flaky")
	if err != nil || !ok {
		t.Fatalf("RecordAttempt: ok=%v err=%v", ok, err)
	}

	// 10ms past the gate within the same second. A trimmed-fraction
	// encoding sorts "...53.5Z" after "...53.51Z" and would keep the
	// job gated here.
	got, err := store.NextReady(ctx, base.Add(510*time.Millisecond))
	if err != nil {
		t.Fatalf("NextReady: %v", err)
	}
	if got == nil || got.ID != job.ID {
		t.Fatalf("expected job ready just past gate, got %#v", got)
	}

	if got, err := store.NextReady(ctx, base.Add(490*time.Millisecond)); err != nil || got != nil {
		t.Fatalf("expected no ready job before gate, got %#v err=%v", got, err)
	}
}

func TestNextReadyExcludesActiveAndTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewVideoJob(t, store, "https://example.com/a")
	second := testsupport.NewVideoJob(t, store, "https://example.com/b")

	got, err := store.NextReady(ctx, time.Now().UTC(), first.ID)
	if err != nil {
		t.Fatalf("NextReady: %v", err)
	}
	if got == nil || got.ID != second.ID {
		t.Fatalf("expected second job, got %#v", got)
	}

	if ok, err := store.MarkFailed(ctx, second, queue.StageQueued, "invalid_input", "bad"); err != nil || !ok {
		t.Fatalf("MarkFailed: ok=%v err=%v", ok, err)
	}
	got, err = store.NextReady(ctx, time.Now().UTC(), first.ID)
	if err != nil {
		t.Fatalf("NextReady: %v", err)
	}
	if got != nil {
		t.Fatalf("terminal job should not be ready, got %#v", got)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	queued := testsupport.NewVideoJob(t, store, "https://example.com/a")
	failed := testsupport.NewVideoJob(t, store, "https://example.com/b")
	if ok, err := store.MarkFailed(ctx, failed, queue.StageQueued, "unknown", "boom"); err != nil || !ok {
		t.Fatalf("MarkFailed: ok=%v err=%v", ok, err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StageQueued] != 1 || stats[queue.StageFailed] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Queued != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health: %#v", health)
	}
	_ = queued
}

func TestResubmitClonesFailedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewVideoJob(t, store, "https://example.com/a")
	if _, err := store.Resubmit(ctx, job.ID); err == nil {
		t.Fatal("expected resubmit of non-failed job to be rejected")
	}

	if ok, err := store.MarkFailed(ctx, job, queue.StageQueued, "transient_provider_error", "flaky"); err != nil || !ok {
		t.Fatalf("MarkFailed: ok=%v err=%v", ok, err)
	}
	clone, err := store.Resubmit(ctx, job.ID)
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if clone.ID == job.ID {
		t.Fatal("resubmit must create a fresh job")
	}
	if clone.Stage != queue.StageQueued || clone.SourceRef != job.SourceRef {
		t.Fatalf("unexpected clone: %#v", clone)
	}

	// Original stays terminal and untouched.
	original, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if original.Stage != queue.StageFailed {
		t.Fatalf("original stage mutated: %s", original.Stage)
	}
}

func TestClearCompletedAndFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	keep := testsupport.NewVideoJob(t, store, "https://example.com/keep")
	failed := testsupport.NewVideoJob(t, store, "https://example.com/gone")
	if ok, err := store.MarkFailed(ctx, failed, queue.StageQueued, "unknown", "boom"); err != nil || !ok {
		t.Fatalf("MarkFailed: ok=%v err=%v", ok, err)
	}

	n, err := store.ClearFailed(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearFailed: n=%d err=%v", n, err)
	}
	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != keep.ID {
		t.Fatalf("unexpected remaining jobs: %#v", jobs)
	}
}
