// Package config loads, validates, and normalizes the TOML configuration for
// the PodSlice daemon and CLI. All path fields are tilde-expanded before use,
// and Default returns a fully usable config so tests can start from the
// repository defaults and override only what they need.
package config
