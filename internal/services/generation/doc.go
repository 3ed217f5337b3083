// Package generation wraps the OpenRouter-compatible chat completion API
// used for summary/script generation and grounding classification.
//
// The client is deliberately single-shot: it never retries internally.
// Failures come back tagged with the services error markers (quota for 429,
// transient for timeouts and 5xx, invalid for request-shape rejections) so
// the orchestrator's retry policy is the only retry loop in the system.
package generation
