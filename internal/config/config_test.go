package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podslice/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Workflow.MaxParallelJobs != 2 {
		t.Fatalf("expected default max_parallel_jobs, got %d", cfg.Workflow.MaxParallelJobs)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		`[workflow]`,
		`max_parallel_jobs = 7`,
		`[tts]`,
		`default_voice = "baritone"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Workflow.MaxParallelJobs != 7 {
		t.Fatalf("override not applied: %d", cfg.Workflow.MaxParallelJobs)
	}
	if cfg.TTS.DefaultVoice != "baritone" {
		t.Fatalf("override not applied: %q", cfg.TTS.DefaultVoice)
	}
	if cfg.TTS.Primary.BaseURL == "" {
		t.Fatal("defaults should survive partial override")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.QueuePollInterval = 0
	cfg.Logging.Format = "yaml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "queue_poll_interval") {
		t.Fatalf("missing poll interval problem: %v", err)
	}
	if !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("missing format problem: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}
