// Package publisher implements the persist stage: uploading staged episode
// audio to durable object storage under a collision-free key and recording
// the public URI.
package publisher
