package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"podslice/internal/api"
	"podslice/internal/queue"
	"podslice/internal/stage"
)

func TestFromJobMapsFields(t *testing.T) {
	next := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	job := &queue.Job{
		ID:                      42,
		RequestedBy:             "user-7",
		SourceType:              queue.SourceVideo,
		SourceRef:               "https://example.com/talk.mp4",
		VoiceID:                 "voice-a",
		Stage:                   queue.StageSynthesizing,
		TTSProvider:             queue.TTSSecondary,
		StageAttempts:           map[queue.Stage]int{queue.StageSynthesizing: 3},
		NextAttemptAt:           &next,
		LastErrorClassification: "transient_provider_error",
		LastErrorMessage:        "synthesis provider unavailable",
		EpisodeTitle:            "Talk Recap",
		SummaryJSON:             `{"key_takeaways":["x"]}`,
		Transcript:              "hello world",
		Script:                  "Welcome back.",
		SourceDurationSeconds:   120.5,
		CreatedAt:               time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		UpdatedAt:               time.Date(2025, 3, 14, 9, 26, 0, 0, time.UTC),
	}

	dto := api.FromJob(job)
	if dto.ID != 42 || dto.Stage != "synthesizing" || dto.TTSProvider != "secondary" {
		t.Fatalf("unexpected DTO core fields: %+v", dto)
	}
	if dto.StageAttempts["synthesizing"] != 3 {
		t.Fatalf("expected stage attempts preserved, got %v", dto.StageAttempts)
	}
	if dto.NextAttemptAt != "2025-03-14T09:26:53.589Z" {
		t.Fatalf("unexpected nextAttemptAt %q", dto.NextAttemptAt)
	}
	if dto.TranscriptChars != len("hello world") || dto.ScriptChars != len("Welcome back.") {
		t.Fatalf("unexpected artifact sizes: %+v", dto)
	}
	var summary map[string]any
	if err := json.Unmarshal(dto.Summary, &summary); err != nil {
		t.Fatalf("summary should round-trip as raw JSON: %v", err)
	}
	if dto.CreatedAt == "" || dto.UpdatedAt == "" {
		t.Fatal("expected formatted timestamps")
	}
}

func TestFromJobNilAndEmpty(t *testing.T) {
	if got := api.FromJob(nil); got.ID != 0 || got.Stage != "" {
		t.Fatalf("nil job should map to zero DTO, got %+v", got)
	}
	if got := api.FromJobs(nil); got != nil {
		t.Fatalf("expected nil slice, got %v", got)
	}
	dto := api.FromJob(&queue.Job{ID: 1, Stage: queue.StageQueued})
	if dto.NextAttemptAt != "" || dto.Summary != nil || dto.StageAttempts != nil {
		t.Fatalf("zero-valued fields should stay empty: %+v", dto)
	}
}

func TestFromStageHealth(t *testing.T) {
	checks := []stage.Health{
		stage.Healthy("transcribing"),
		stage.Unhealthy("synthesizing", "tts api key not configured"),
	}
	out := api.FromStageHealth(checks)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if !out[0].Ready || out[0].Name != "transcribing" {
		t.Fatalf("unexpected first entry %+v", out[0])
	}
	if out[1].Ready || out[1].Detail == "" {
		t.Fatalf("unexpected second entry %+v", out[1])
	}
}

func TestStatsMap(t *testing.T) {
	stats := api.StatsMap(map[queue.Stage]int{queue.StageQueued: 2, queue.StageFailed: 1})
	if stats["queued"] != 2 || stats["failed"] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}
