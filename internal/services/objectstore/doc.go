// Package objectstore persists rendered episode audio to S3-compatible
// object storage. Write failures classify as transient so the orchestrator
// retries the persist stage rather than failing the episode.
package objectstore
