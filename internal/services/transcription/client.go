package transcription

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"podslice/internal/config"
	"podslice/internal/services"
)

const defaultTimeout = 120 * time.Second

// Result is a completed transcription: the full transcript text plus the
// provider's estimate of the source duration.
type Result struct {
	Text            string
	DurationSeconds float64
}

// Transcriber produces a transcript for a remote source reference.
type Transcriber interface {
	Transcribe(ctx context.Context, sourceRef string) (Result, error)
}

// Client talks to the remote transcription provider.
type Client struct {
	http *resty.Client
}

// NewClient constructs a transcription client from the supplied configuration.
func NewClient(cfg config.Transcription) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+strings.TrimSpace(cfg.APIKey)).
		SetHeader("Content-Type", "application/json")
	return &Client{http: client}
}

type transcribeRequest struct {
	SourceURL string `json:"source_url"`
}

type transcribeResponse struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
	Detail          string  `json:"detail,omitempty"`
}

// Transcribe submits the source reference and waits for the transcript. The
// request is made exactly once; the caller owns retry.
func (c *Client) Transcribe(ctx context.Context, sourceRef string) (Result, error) {
	sourceRef = strings.TrimSpace(sourceRef)
	if sourceRef == "" {
		return Result{}, services.Wrap(services.ErrInvalid, "", "transcribe", "source reference required", nil)
	}

	var parsed transcribeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(transcribeRequest{SourceURL: sourceRef}).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/v1/transcriptions")
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "", "transcribe", "http error", err)
	}
	if resp.IsError() {
		return Result{}, classifyStatus(resp.StatusCode(), parsed.Detail)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return Result{}, services.Wrap(services.ErrUnsupported, "", "transcribe", "provider returned no speech content", nil)
	}
	return Result{Text: parsed.Text, DurationSeconds: parsed.DurationSeconds}, nil
}

// classifyStatus maps the provider's status codes onto the failure taxonomy:
// 415/422 mean the source media cannot be handled, 400 is a malformed
// request, 429 is quota, and everything else (including all 5xx) is
// transient.
func classifyStatus(status int, detail string) error {
	message := fmt.Sprintf("http %d", status)
	if detail = strings.TrimSpace(detail); detail != "" {
		message = fmt.Sprintf("http %d: %s", status, detail)
	}
	switch {
	case status == http.StatusUnsupportedMediaType, status == http.StatusUnprocessableEntity:
		return services.Wrap(services.ErrUnsupported, "", "transcribe", message, nil)
	case status == http.StatusBadRequest:
		return services.Wrap(services.ErrInvalid, "", "transcribe", message, nil)
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrQuota, "", "transcribe", message, nil)
	default:
		return services.Wrap(services.ErrTransient, "", "transcribe", message, nil)
	}
}
