package api

import (
	"encoding/json"

	"podslice/internal/queue"
	"podslice/internal/stage"
)

// FromJob converts a queue record to its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}

	dto := Job{
		ID:                    job.ID,
		RequestedBy:           job.RequestedBy,
		SourceType:            string(job.SourceType),
		SourceRef:             job.SourceRef,
		VoiceID:               job.VoiceID,
		Stage:                 string(job.Stage),
		TTSProvider:           string(job.TTSProvider),
		ErrorClassification:   job.LastErrorClassification,
		ErrorMessage:          job.LastErrorMessage,
		EpisodeTitle:          job.EpisodeTitle,
		TranscriptChars:       len(job.Transcript),
		ScriptChars:           len(job.Script),
		SourceDurationSeconds: job.SourceDurationSeconds,
		AudioFile:             job.AudioFile,
		AudioKey:              job.AudioKey,
		AudioURI:              job.AudioURI,
		AudioDurationSeconds:  job.AudioDurationSeconds,
	}
	if len(job.StageAttempts) > 0 {
		dto.StageAttempts = make(map[string]int, len(job.StageAttempts))
		for s, n := range job.StageAttempts {
			dto.StageAttempts[string(s)] = n
		}
	}
	if job.NextAttemptAt != nil && !job.NextAttemptAt.IsZero() {
		dto.NextAttemptAt = job.NextAttemptAt.UTC().Format(dateTimeFormat)
	}
	if raw := job.SummaryJSON; raw != "" {
		dto.Summary = json.RawMessage(raw)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of queue records into API DTOs.
func FromJobs(jobs []*queue.Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStageHealth converts executor health checks into API payloads.
func FromStageHealth(checks []stage.Health) []StageHealth {
	if len(checks) == 0 {
		return nil
	}
	out := make([]StageHealth, 0, len(checks))
	for _, h := range checks {
		out = append(out, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// StatsMap converts queue stage counters to string keys for transport.
func StatsMap(stats map[queue.Stage]int) map[string]int {
	out := make(map[string]int, len(stats))
	for s, count := range stats {
		out[string(s)] = count
	}
	return out
}
