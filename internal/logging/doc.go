// Package logging configures slog handlers for the daemon and CLI and
// provides attr helpers plus context-derived fields so every log line can
// carry the job, stage, and correlation identifiers of the work it belongs
// to.
package logging
