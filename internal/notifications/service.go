package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podslice/internal/config"
)

const userAgent = "PodSlice-Go/0.1.0"

// Event names the terminal event types as they appear on the wire.
type Event string

const (
	EventEpisodeReady  Event = "episode.ready"
	EventEpisodeFailed Event = "episode.failed"
)

// ReadyPayload is the episode.ready message shape.
type ReadyPayload struct {
	JobID           int64   `json:"jobId"`
	OwnerID         string  `json:"ownerId"`
	EpisodeTitle    string  `json:"episodeTitle"`
	AudioURI        string  `json:"audioUri"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// FailedPayload is the episode.failed message shape. Message carries the
// short classification reason, never raw provider error text.
type FailedPayload struct {
	JobID          int64  `json:"jobId"`
	OwnerID        string `json:"ownerId"`
	Classification string `json:"classification"`
	Message        string `json:"message"`
}

// Service defines the notification surface exposed to workflow components.
type Service interface {
	EpisodeReady(ctx context.Context, payload ReadyPayload) error
	EpisodeFailed(ctx context.Context, payload FailedPayload) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	event    Event
	body     any
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) EpisodeReady(ctx context.Context, payload ReadyPayload) error {
	return n.send(ctx, message{
		title:    fmt.Sprintf("PodSlice - Episode Ready: %s", strings.TrimSpace(payload.EpisodeTitle)),
		event:    EventEpisodeReady,
		body:     payload,
		tags:     []string{"podslice", "episode", "ready"},
		priority: "high",
	})
}

func (n *ntfyService) EpisodeFailed(ctx context.Context, payload FailedPayload) error {
	return n.send(ctx, message{
		title:    "PodSlice - Episode Failed",
		event:    EventEpisodeFailed,
		body:     payload,
		tags:     []string{"podslice", "episode", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "PodSlice - Test",
		event:    "test",
		body:     map[string]string{"status": "ok"},
		tags:     []string{"podslice", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	encoded, err := json.Marshal(map[string]any{
		"event":   data.event,
		"payload": data.body,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(string(encoded)))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) EpisodeReady(context.Context, ReadyPayload) error   { return nil }
func (noopService) EpisodeFailed(context.Context, FailedPayload) error { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
