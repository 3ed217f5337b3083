// Package queue persists episode-generation jobs in SQLite and exposes the
// transition primitives the orchestrator builds its guarantees on.
//
// Every stage transition is a single guarded UPDATE: the new artifacts and
// the new stage land together, and the guard on the expected pre-stage turns
// a racing duplicate advance into a no-op. The caller that wins the terminal
// transition is the only one allowed to emit the terminal event, which is how
// at-least-once delivery of advance triggers stays safe.
//
// The database is treated as transient storage for in-flight jobs rather
// than a long-term archive. Schema changes bump schemaVersion; users clear
// the database to adopt the new schema.
package queue
