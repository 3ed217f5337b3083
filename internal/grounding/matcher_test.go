package grounding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"podslice/internal/logging"
)

type stubClassifier struct {
	response string
	err      error
	prompt   string
}

func (s *stubClassifier) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	s.prompt = userPrompt
	return s.response, s.err
}

func candidates() []Asset {
	return []Asset{
		{ID: "a1", Title: "Transformer architectures", Tags: []string{"ml"}, Description: "Attention is all you need."},
		{ID: "a2", Title: "Sourdough starters", Tags: []string{"baking"}},
		{ID: "a3", Title: "Scaling laws", Tags: []string{"ml"}},
	}
}

func TestSelectRelevantFiltersByClassifierIDs(t *testing.T) {
	stub := &stubClassifier{response: `{"relevant_ids":["a3","a1"]}`}
	matcher := NewMatcher(stub, logging.NewNop())

	got := matcher.SelectRelevant(context.Background(), "Deep Dive on LLMs", "scaling and attention", candidates())
	if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "a3" {
		t.Fatalf("unexpected selection: %#v", got)
	}
	if !strings.Contains(stub.prompt, "Deep Dive on LLMs") {
		t.Error("prompt missing episode title")
	}
	if !strings.Contains(stub.prompt, "Sourdough starters") {
		t.Error("prompt missing candidate metadata")
	}
}

func TestSelectRelevantDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name string
		stub *stubClassifier
	}{
		{"classifier error", &stubClassifier{err: errors.New("boom")}},
		{"malformed response", &stubClassifier{response: "not json"}},
		{"hallucinated ids", &stubClassifier{response: `{"relevant_ids":["zz"]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := NewMatcher(tt.stub, logging.NewNop())
			if got := matcher.SelectRelevant(context.Background(), "t", "d", candidates()); len(got) != 0 {
				t.Fatalf("expected empty selection, got %#v", got)
			}
		})
	}
}

func TestSelectRelevantEmptyCandidatesSkipsClassifier(t *testing.T) {
	stub := &stubClassifier{response: `{"relevant_ids":["a1"]}`}
	matcher := NewMatcher(stub, logging.NewNop())
	if got := matcher.SelectRelevant(context.Background(), "t", "d", nil); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if stub.prompt != "" {
		t.Fatal("classifier must not be called without candidates")
	}
}

func TestSelectRelevantTruncatesExcerpts(t *testing.T) {
	long := strings.Repeat("x", 1000)
	stub := &stubClassifier{response: `{"relevant_ids":[]}`}
	matcher := NewMatcher(stub, logging.NewNop())
	matcher.SelectRelevant(context.Background(), "t", "d", []Asset{{ID: "a1", Title: "Doc", Description: long}})
	if strings.Contains(stub.prompt, long) {
		t.Fatal("full document body leaked into the prompt")
	}
}
