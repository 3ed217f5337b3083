package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run without.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		problems = append(problems, "paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if c.Workflow.QueuePollInterval <= 0 {
		problems = append(problems, "workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.MaxParallelJobs <= 0 {
		problems = append(problems, "workflow.max_parallel_jobs must be positive")
	}
	for name, seconds := range map[string]int{
		"workflow.transcribe_timeout": c.Workflow.TranscribeTimeout,
		"workflow.summarize_timeout":  c.Workflow.SummarizeTimeout,
		"workflow.synthesize_timeout": c.Workflow.SynthesizeTimeout,
		"workflow.persist_timeout":    c.Workflow.PersistTimeout,
	} {
		if seconds <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", name))
		}
	}
	if strings.TrimSpace(c.Transcription.BaseURL) == "" {
		problems = append(problems, "transcription.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		problems = append(problems, "llm.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		problems = append(problems, "llm.model must be set")
	}
	if strings.TrimSpace(c.TTS.Primary.BaseURL) == "" {
		problems = append(problems, "tts.primary.base_url must be set")
	}
	if strings.TrimSpace(c.TTS.Secondary.BaseURL) == "" {
		problems = append(problems, "tts.secondary.base_url must be set")
	}
	if strings.TrimSpace(c.TTS.DefaultVoice) == "" {
		problems = append(problems, "tts.default_voice must be set")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		problems = append(problems, "storage.bucket must be set")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
