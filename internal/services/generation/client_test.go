package generation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"podslice/internal/config"
	"podslice/internal/services"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.LLM{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test/model",
	})
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Deep Dive\"}"}}]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"title":"Deep Dive"}` {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteJSONFallsBackToDelta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"delta":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteJSONClassifiesStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   services.Classification
	}{
		{http.StatusTooManyRequests, services.ClassQuota},
		{http.StatusBadRequest, services.ClassInvalid},
		{http.StatusUnprocessableEntity, services.ClassInvalid},
		{http.StatusInternalServerError, services.ClassTransient},
		{http.StatusBadGateway, services.ClassTransient},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "provider says no", tt.status)
		}))
		_, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := services.ClassificationOf(err); got != tt.want {
			t.Errorf("status %d classified %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestCompleteJSONEmptyContentIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	if got := services.ClassificationOf(err); got != services.ClassTransient {
		t.Fatalf("classified %s, want transient", got)
	}
}

func TestCompleteJSONRejectsMissingInputs(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")
	if _, err := client.CompleteJSON(context.Background(), "", "user"); services.ClassificationOf(err) != services.ClassInvalid {
		t.Fatal("missing system prompt must classify invalid")
	}
	if _, err := client.CompleteJSON(context.Background(), "system", ""); services.ClassificationOf(err) != services.ClassInvalid {
		t.Fatal("missing user prompt must classify invalid")
	}
}

func TestDecodeModelJSON(t *testing.T) {
	type out struct {
		Title string `json:"title"`
	}
	tests := []struct {
		name string
		in   string
	}{
		{"plain", `{"title":"x"}`},
		{"fenced", "```json\n{\"title\":\"x\"}\n```"},
		{"prose wrapped", "Here you go: {\"title\":\"x\"} hope that helps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parsed out
			if err := DecodeModelJSON(tt.in, &parsed); err != nil {
				t.Fatalf("DecodeModelJSON: %v", err)
			}
			if parsed.Title != "x" {
				t.Fatalf("title = %q", parsed.Title)
			}
		})
	}

	var parsed out
	if err := DecodeModelJSON("not json at all", &parsed); err == nil {
		t.Fatal("expected decode failure")
	}
}
