package transcription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"podslice/internal/config"
	"podslice/internal/services"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.Transcription{
		BaseURL: serverURL,
		APIKey:  "test-key",
	})
}

func TestTranscribeReturnsTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			SourceURL string `json:"source_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SourceURL != "https://example.com/talk" {
			t.Errorf("source_url = %q", req.SourceURL)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello world","duration_seconds":120.5}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Transcribe(context.Background(), "https://example.com/talk")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "hello world" || result.DurationSeconds != 120.5 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestTranscribeClassifiesStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   services.Classification
	}{
		{http.StatusUnsupportedMediaType, services.ClassUnsupported},
		{http.StatusUnprocessableEntity, services.ClassUnsupported},
		{http.StatusBadRequest, services.ClassInvalid},
		{http.StatusTooManyRequests, services.ClassQuota},
		{http.StatusInternalServerError, services.ClassTransient},
		{http.StatusServiceUnavailable, services.ClassTransient},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"detail":"nope"}`))
		}))
		_, err := newTestClient(server.URL).Transcribe(context.Background(), "https://example.com/talk")
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := services.ClassificationOf(err); got != tt.want {
			t.Errorf("status %d classified %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestTranscribeEmptyTextIsUnsupported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"","duration_seconds":0}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Transcribe(context.Background(), "https://example.com/talk")
	if services.ClassificationOf(err) != services.ClassUnsupported {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

func TestTranscribeRequiresSourceRef(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:0").Transcribe(context.Background(), "  ")
	if services.ClassificationOf(err) != services.ClassInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
}
