package queue

import (
	"encoding/json"
	"strings"
	"time"
)

// Stage represents the lifecycle position of a job.
type Stage string

const (
	StageQueued       Stage = "queued"
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageSynthesizing Stage = "synthesizing"
	StagePersisting   Stage = "persisting"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// SourceType identifies the kind of content a job was submitted for.
type SourceType string

const (
	SourceVideo SourceType = "video"
	SourceNews  SourceType = "news"
)

// TTSProvider selects which synthesis provider serves the synthesize stage.
// Persisted on the job so a fallback decision survives restarts; the
// orchestrator never switches providers mid-attempt.
type TTSProvider string

const (
	TTSPrimary   TTSProvider = "primary"
	TTSSecondary TTSProvider = "secondary"
)

var stageOrder = []Stage{
	StageQueued,
	StageTranscribing,
	StageSummarizing,
	StageSynthesizing,
	StagePersisting,
	StageCompleted,
}

var stageIndex = func() map[Stage]int {
	idx := make(map[Stage]int, len(stageOrder))
	for i, stage := range stageOrder {
		idx[stage] = i
	}
	return idx
}()

// AllStages returns the forward stage ordering, excluding failed.
func AllStages() []Stage {
	cp := make([]Stage, len(stageOrder))
	copy(cp, stageOrder)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == StageFailed {
		return normalized, true
	}
	_, ok := stageIndex[normalized]
	return normalized, ok
}

// Next returns the stage that follows s in the forward ordering.
func (s Stage) Next() (Stage, bool) {
	idx, ok := stageIndex[s]
	if !ok || idx >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[idx+1], true
}

// Terminal reports whether the stage admits no further transitions.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Before reports whether s precedes other in the forward ordering.
// Failed compares after every forward stage.
func (s Stage) Before(other Stage) bool {
	si, ok := stageIndex[s]
	if !ok {
		return false
	}
	oi, ok := stageIndex[other]
	if !ok {
		return other == StageFailed
	}
	return si < oi
}

// Job represents one episode-generation request persisted in SQLite.
type Job struct {
	ID          int64
	RequestedBy string
	SourceType  SourceType
	SourceRef   string
	VoiceID     string

	Stage         Stage
	TTSProvider   TTSProvider
	StageAttempts map[Stage]int
	NextAttemptAt *time.Time

	LastErrorClassification string
	LastErrorMessage        string

	// Artifacts, each written once by its producing stage.
	Transcript            string
	SourceDurationSeconds float64
	SummaryJSON           string
	Script                string
	EpisodeTitle          string
	AudioFile             string
	AudioKey              string
	AudioURI              string
	AudioDurationSeconds  float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attempts returns the recorded attempt count for a stage.
func (j *Job) Attempts(stage Stage) int {
	if j == nil || j.StageAttempts == nil {
		return 0
	}
	return j.StageAttempts[stage]
}

// TotalAttempts sums attempt counters across all stages.
func (j *Job) TotalAttempts() int {
	total := 0
	for _, n := range j.StageAttempts {
		total += n
	}
	return total
}

// Ready reports whether the job is eligible for an advance call at the given
// instant: non-terminal and past any backoff gate.
func (j *Job) Ready(now time.Time) bool {
	if j == nil || j.Stage.Terminal() {
		return false
	}
	if j.NextAttemptAt == nil {
		return true
	}
	return !now.Before(*j.NextAttemptAt)
}

func marshalAttempts(attempts map[Stage]int) (string, error) {
	if len(attempts) == 0 {
		return "{}", nil
	}
	out := make(map[string]int, len(attempts))
	for stage, n := range attempts {
		out[string(stage)] = n
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func unmarshalAttempts(raw string) map[Stage]int {
	attempts := make(map[Stage]int)
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return attempts
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return attempts
	}
	for stage, n := range decoded {
		attempts[Stage(stage)] = n
	}
	return attempts
}

// HealthSummary describes aggregated job counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Completed  int
	Failed     int
}
