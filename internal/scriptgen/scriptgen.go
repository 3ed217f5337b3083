package scriptgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"podslice/internal/config"
	"podslice/internal/grounding"
	"podslice/internal/logging"
	"podslice/internal/queue"
	"podslice/internal/scripttext"
	"podslice/internal/services"
	"podslice/internal/services/generation"
	"podslice/internal/stage"
)

const generatorSystemPrompt = `You are a podcast episode writer.

You will be given a source transcript and optional grounding reference
documents. Produce a structured summary and a conversational two-speaker
script covering the source material. Script lines must contain only the
spoken words: no speaker labels, no stage directions, no markdown.

Respond with JSON only in the following schema:
{"title":<string>,
 "summary":{"key_takeaways":[<string>...],"topics":[<string>...],"target_audience":<string>},
 "script":[{"speaker":"host"|"guest","line":<string>}...]}`

// Transcripts beyond this length are truncated before prompting; the model
// context window is the binding constraint, not storage.
const maxTranscriptChars = 48_000

// Summary is the structured distillation of the source material.
type Summary struct {
	KeyTakeaways   []string `json:"key_takeaways"`
	Topics         []string `json:"topics"`
	TargetAudience string   `json:"target_audience"`
}

// Episode is the full generation payload the model returns.
type Episode struct {
	Title   string       `json:"title"`
	Summary Summary      `json:"summary"`
	Script  []ScriptLine `json:"script"`
}

// ScriptLine is one spoken line of the generated script.
type ScriptLine struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

// Generator is the remote completion surface the stage needs.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AssetSource lists a requester's candidate grounding documents.
type AssetSource interface {
	AssetsFor(ctx context.Context, requestedBy string) ([]grounding.Asset, error)
}

// ScriptGenerator produces the summary and script artifacts for a job.
type ScriptGenerator struct {
	cfg       *config.Config
	logger    *slog.Logger
	generator Generator
	matcher   *grounding.Matcher
	assets    AssetSource
	titler    cases.Caser
}

// New constructs the summarize stage executor using default dependencies.
// Without an asset source every episode is generated ungrounded.
func New(cfg *config.Config, logger *slog.Logger) *ScriptGenerator {
	client := generation.NewClient(cfg.LLM)
	return NewWithDependencies(cfg, logger, client, grounding.NewMatcher(client, logger), nil)
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, generator Generator, matcher *grounding.Matcher, assets AssetSource) *ScriptGenerator {
	return &ScriptGenerator{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "scriptgen"),
		generator: generator,
		matcher:   matcher,
		assets:    assets,
		titler:    cases.Title(language.English),
	}
}

func (g *ScriptGenerator) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, g.logger)
	transcript := strings.TrimSpace(job.Transcript)
	if transcript == "" {
		return services.Wrap(services.ErrInvalid, string(queue.StageSummarizing), "validate inputs",
			"no transcript present; transcription must complete first", nil)
	}

	selected := g.selectAssets(ctx, job)
	logger.Info("starting script generation",
		logging.Int("transcript_chars", len(transcript)),
		logging.Int("grounding_assets", len(selected)))

	content, err := g.generator.CompleteJSON(ctx, generatorSystemPrompt, buildPrompt(job, transcript, selected))
	if err != nil {
		return fmt.Errorf("generate episode: %w", err)
	}

	var episode Episode
	if err := generation.DecodeModelJSON(content, &episode); err != nil {
		// A malformed completion is the provider's fault; a retried call
		// usually parses.
		return services.Wrap(services.ErrTransient, string(queue.StageSummarizing), "decode episode", err.Error(), nil)
	}
	if len(episode.Script) == 0 {
		return services.Wrap(services.ErrTransient, string(queue.StageSummarizing), "decode episode", "model returned empty script", nil)
	}

	lines := make([]string, 0, len(episode.Script))
	for _, scriptLine := range episode.Script {
		if clean := scripttext.SanitizeSpeakerLabels(scriptLine.Line); clean != "" {
			lines = append(lines, clean)
		}
	}
	if len(lines) == 0 {
		return services.Wrap(services.ErrTransient, string(queue.StageSummarizing), "sanitize script", "script empty after sanitization", nil)
	}

	summaryJSON, err := json.Marshal(episode.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	job.EpisodeTitle = g.episodeTitle(episode.Title, job)
	job.SummaryJSON = string(summaryJSON)
	job.Script = strings.Join(lines, "\n")
	logger.Info("script generation complete",
		logging.String("episode_title", job.EpisodeTitle),
		logging.Int("script_lines", len(lines)))
	return nil
}

func (g *ScriptGenerator) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(g.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("scriptgen", "LLM API key not configured")
	}
	return stage.Healthy("scriptgen")
}

// selectAssets gathers and filters grounding candidates. Asset lookup
// failures degrade to ungrounded generation; grounding is advisory.
func (g *ScriptGenerator) selectAssets(ctx context.Context, job *queue.Job) []grounding.Asset {
	if g.assets == nil || g.matcher == nil {
		return nil
	}
	candidates, err := g.assets.AssetsFor(ctx, job.RequestedBy)
	if err != nil {
		g.logger.Warn("asset lookup failed; proceeding ungrounded", logging.Error(err))
		return nil
	}
	title, description := episodeContext(job)
	return g.matcher.SelectRelevant(ctx, title, description, candidates)
}

func (g *ScriptGenerator) episodeTitle(modelTitle string, job *queue.Job) string {
	title := strings.TrimSpace(modelTitle)
	if title == "" {
		title, _ = episodeContext(job)
	}
	return g.titler.String(title)
}

// episodeContext derives a title/description pair from the job's source for
// grounding classification and title fallback.
func episodeContext(job *queue.Job) (title, description string) {
	ref := strings.TrimSpace(job.SourceRef)
	if job.SourceType == queue.SourceNews {
		if topic, _, found := strings.Cut(ref, "|"); found {
			topic = strings.TrimSpace(topic)
			return topic, "news roundup on " + topic
		}
	}
	return ref, "episode generated from " + ref
}

func buildPrompt(job *queue.Job, transcript string, assets []grounding.Asset) string {
	var b strings.Builder
	title, _ := episodeContext(job)
	fmt.Fprintf(&b, "Source: %s\n\n", title)
	if len(assets) > 0 {
		b.WriteString("Grounding documents:\n")
		for _, asset := range assets {
			fmt.Fprintf(&b, "- %s: %s\n", asset.Title, strings.TrimSpace(asset.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString("Transcript:\n")
	b.WriteString(truncateTranscript(transcript))
	return b.String()
}

func truncateTranscript(transcript string) string {
	runes := []rune(transcript)
	if len(runes) <= maxTranscriptChars {
		return transcript
	}
	return string(runes[:maxTranscriptChars]) + "\n[transcript truncated]"
}
