package tts

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"podslice/internal/config"
	"podslice/internal/services"
)

const (
	defaultTimeout = 180 * time.Second

	// Output contract shared by both providers: 44.1kHz MP3 at 128kbps.
	// Duration estimates below derive from the bitrate.
	outputFormat  = "mp3_44100_128"
	outputBitrate = 128_000 // bits per second
)

// Audio is a fully rendered synthesis result.
type Audio struct {
	Data            []byte
	DurationSeconds float64
}

// Synthesizer renders script text to audio with a chosen voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (Audio, error)
	Name() string
}

// Client is a Synthesizer backed by one remote TTS endpoint. The primary
// and secondary providers differ only in configuration, so both are
// constructed from the same type.
type Client struct {
	name string
	cfg  config.TTSProvider
	http *resty.Client
}

// NewClient constructs a synthesizer for one provider endpoint. The name
// appears in error detail and logs ("primary", "secondary").
func NewClient(name string, cfg config.TTSProvider) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+strings.TrimSpace(cfg.APIKey)).
		SetHeader("Content-Type", "application/json")
	return &Client{name: name, cfg: cfg, http: client}
}

// Name identifies the provider in logs and error detail.
func (c *Client) Name() string { return c.name }

type synthesizeRequest struct {
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id"`
	Model        string `json:"model_id"`
	OutputFormat string `json:"output_format"`
}

// Synthesize renders the text with the given voice and returns the complete
// audio artifact. The response body is drained fully; if the provider
// advertised a Content-Length and the stream came up short, the result is
// discarded as transient rather than persisted truncated.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) (Audio, error) {
	op := "synthesize " + c.name
	text = strings.TrimSpace(text)
	if text == "" {
		return Audio{}, services.Wrap(services.ErrInvalid, "", op, "script text required", nil)
	}
	if voiceID = strings.TrimSpace(voiceID); voiceID == "" {
		return Audio{}, services.Wrap(services.ErrInvalid, "", op, "voice id required", nil)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(synthesizeRequest{
			Text:         text,
			VoiceID:      voiceID,
			Model:        c.cfg.Model,
			OutputFormat: outputFormat,
		}).
		Post("/v1/synthesize")
	if err != nil {
		return Audio{}, services.Wrap(services.ErrTransient, "", op, "http error", err)
	}
	if resp.IsError() {
		return Audio{}, classifyStatus(op, resp.StatusCode(), string(resp.Body()))
	}

	data := resp.Body()
	if len(data) == 0 {
		return Audio{}, services.Wrap(services.ErrTransient, "", op, "provider returned empty audio", nil)
	}
	if declared := contentLength(resp); declared > 0 && int64(len(data)) != declared {
		return Audio{}, services.Wrap(services.ErrTransient, "", op,
			fmt.Sprintf("truncated stream: got %d of %d bytes", len(data), declared), nil)
	}
	return Audio{Data: data, DurationSeconds: EstimateDurationSeconds(len(data))}, nil
}

// EstimateDurationSeconds derives playback duration from the byte length of
// constant-bitrate MP3 output.
func EstimateDurationSeconds(byteLen int) float64 {
	if byteLen <= 0 {
		return 0
	}
	return float64(byteLen*8) / float64(outputBitrate)
}

func contentLength(resp *resty.Response) int64 {
	header := strings.TrimSpace(resp.Header().Get("Content-Length"))
	if header == "" {
		return 0
	}
	length, err := strconv.ParseInt(header, 10, 64)
	if err != nil || length < 0 {
		return 0
	}
	return length
}

func classifyStatus(op string, status int, body string) error {
	detail := fmt.Sprintf("http %d", status)
	if body = strings.TrimSpace(body); body != "" {
		const limit = 160
		if len(body) > limit {
			body = body[:limit] + "..."
		}
		detail = fmt.Sprintf("http %d: %s", status, body)
	}
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusPaymentRequired:
		return services.Wrap(services.ErrQuota, "", op, detail, nil)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return services.Wrap(services.ErrInvalid, "", op, detail, nil)
	default:
		return services.Wrap(services.ErrTransient, "", op, detail, nil)
	}
}
