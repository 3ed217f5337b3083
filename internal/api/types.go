package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a queue entry in a transport-friendly format.
type Job struct {
	ID          int64  `json:"id"`
	RequestedBy string `json:"requestedBy"`
	SourceType  string `json:"sourceType"`
	SourceRef   string `json:"sourceRef"`
	VoiceID     string `json:"voiceId,omitempty"`

	Stage         string         `json:"stage"`
	TTSProvider   string         `json:"ttsProvider,omitempty"`
	StageAttempts map[string]int `json:"stageAttempts,omitempty"`
	NextAttemptAt string         `json:"nextAttemptAt,omitempty"`

	ErrorClassification string `json:"errorClassification,omitempty"`
	ErrorMessage        string `json:"errorMessage,omitempty"`

	EpisodeTitle          string          `json:"episodeTitle,omitempty"`
	Summary               json.RawMessage `json:"summary,omitempty"`
	TranscriptChars       int             `json:"transcriptChars"`
	ScriptChars           int             `json:"scriptChars"`
	SourceDurationSeconds float64         `json:"sourceDurationSeconds,omitempty"`
	AudioFile             string          `json:"audioFile,omitempty"`
	AudioKey              string          `json:"audioKey,omitempty"`
	AudioURI              string          `json:"audioUri,omitempty"`
	AudioDurationSeconds  float64         `json:"audioDurationSeconds,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	Workflow     WorkflowStatus `json:"workflow"`
}
