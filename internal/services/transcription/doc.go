// Package transcription wraps the remote transcription provider.
//
// The adapter is single-shot and classifies provider failures with the
// services error markers: unsupported media types, malformed requests,
// quota exhaustion, and transient upstream trouble all come back
// distinguishable to the orchestrator's retry policy.
package transcription
