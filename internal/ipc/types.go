package ipc

import "podslice/internal/api"

// Job mirrors the API job DTO for IPC callers.
type Job = api.Job

// StageHealth describes readiness of a workflow stage.
type StageHealth = api.StageHealth

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	QueueStats  map[string]int `json:"queue_stats"`
	StageHealth []StageHealth  `json:"stage_health"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
}

// SubmitRequest enqueues a new episode-generation job.
type SubmitRequest struct {
	SourceType  string `json:"source_type"`
	SourceRef   string `json:"source_ref"`
	RequestedBy string `json:"requested_by"`
	VoiceID     string `json:"voice_id,omitempty"`
}

// SubmitResponse carries the identifier of the created job.
type SubmitResponse struct {
	JobID int64 `json:"job_id"`
}

// QueueListRequest filters queue listing by stage.
type QueueListRequest struct {
	Stages []string `json:"stages"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Jobs []Job `json:"jobs"`
}

// QueueDescribeRequest fetches a single job by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single job.
type QueueDescribeResponse struct {
	Job Job `json:"job"`
}

// QueueClearCompletedRequest removes completed jobs.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed jobs.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueRemoveRequest deletes a terminal job by id.
type QueueRemoveRequest struct {
	ID int64 `json:"id"`
}

// QueueRemoveResponse reports whether the job was deleted.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// ResubmitRequest clones a failed job into a fresh queued job.
type ResubmitRequest struct {
	ID int64 `json:"id"`
}

// ResubmitResponse carries the clone created by resubmission.
type ResubmitResponse struct {
	Job Job `json:"job"`
}

// LogTailRequest reads daemon log lines starting at Offset. A negative
// offset requests the last Limit lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int64 `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest asks the daemon to emit a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the notification was sent.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
