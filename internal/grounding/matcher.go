package grounding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"podslice/internal/logging"
	"podslice/internal/services/generation"
)

const classifierSystemPrompt = `You are a relevance classifier for podcast episode grounding.

You will be given an episode's title and description plus a numbered list of
candidate reference documents (title, tags, and a short excerpt each).
Select the documents that would meaningfully inform an episode on this topic.
Be selective: an empty selection is a valid answer.

Respond with JSON only in the following schema:
{"relevant_ids":[<string>, ...]}`

// Excerpt length sent to the classifier per candidate. Full document bodies
// never leave the process.
const maxExcerptLen = 280

// Asset is the lightweight metadata of one candidate reference document.
type Asset struct {
	ID          string
	Title       string
	Tags        []string
	Description string
}

// Classifier is the remote completion surface the matcher needs.
type Classifier interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Matcher classifies candidate assets against episode metadata.
type Matcher struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewMatcher constructs a grounding matcher over the generation client.
func NewMatcher(classifier Classifier, logger *slog.Logger) *Matcher {
	return &Matcher{
		classifier: classifier,
		logger:     logging.NewComponentLogger(logger, "grounding"),
	}
}

// SelectRelevant returns the subset of candidates the classifier judged
// relevant, preserving candidate order. Every failure mode — no classifier,
// a request error, a malformed response, hallucinated ids — degrades to a
// smaller (possibly empty) selection rather than an error.
func (m *Matcher) SelectRelevant(ctx context.Context, title, description string, candidates []Asset) []Asset {
	if len(candidates) == 0 || m.classifier == nil {
		return nil
	}

	content, err := m.classifier.CompleteJSON(ctx, classifierSystemPrompt, buildPrompt(title, description, candidates))
	if err != nil {
		m.logger.Warn("grounding classification failed; proceeding ungrounded",
			logging.Error(err))
		return nil
	}

	var parsed struct {
		RelevantIDs []string `json:"relevant_ids"`
	}
	if err := generation.DecodeModelJSON(content, &parsed); err != nil {
		m.logger.Warn("grounding response malformed; proceeding ungrounded",
			logging.Error(err))
		return nil
	}

	wanted := make(map[string]struct{}, len(parsed.RelevantIDs))
	for _, id := range parsed.RelevantIDs {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = struct{}{}
		}
	}
	var selected []Asset
	for _, candidate := range candidates {
		if _, ok := wanted[candidate.ID]; ok {
			selected = append(selected, candidate)
		}
	}
	return selected
}

func buildPrompt(title, description string, candidates []Asset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Episode title: %s\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "Episode description: %s\n\nCandidates:\n", strings.TrimSpace(description))
	for i, candidate := range candidates {
		entry := map[string]any{
			"id":      candidate.ID,
			"title":   candidate.Title,
			"tags":    candidate.Tags,
			"excerpt": truncate(candidate.Description, maxExcerptLen),
		}
		encoded, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, encoded)
	}
	return b.String()
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
