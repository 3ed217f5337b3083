// Package testsupport provides shared helpers for package tests: temp-dir
// configs and pre-opened job stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"podslice/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "podsliced.sock")
	cfg.Transcription.APIKey = "test"
	cfg.LLM.APIKey = "test"
	cfg.TTS.Primary.APIKey = "test"
	cfg.TTS.Secondary.APIKey = "test"
	cfg.Storage.Bucket = "test-episodes"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithNtfyTopic sets the ntfy endpoint on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}
