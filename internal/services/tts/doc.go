// Package tts wraps the text-to-speech provider pair.
//
// Two implementations share one request shape: the primary neural provider
// and the secondary flash-latency provider. Both return MP3 audio at the
// same sample rate so downstream persistence never cares which provider
// rendered an episode. Streamed responses are drained to completion before
// being treated as an artifact; a short read against the advertised length
// classifies as transient so the orchestrator retries it.
package tts
