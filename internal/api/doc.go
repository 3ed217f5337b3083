// Package api defines wire-format types and converters for the IPC layer.
// It translates internal queue models into transport-friendly DTOs so that
// clients can render job state without coupling to internal types.
//
// DTOs use camelCase JSON tags. Internal enums (queue.Stage, queue.SourceType,
// queue.TTSProvider) are exposed as lowercase strings. Timestamps use RFC3339
// with milliseconds. The episode summary is passed through as json.RawMessage
// to avoid double-encoding.
package api
