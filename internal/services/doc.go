// Package services defines the failure taxonomy shared by every provider
// adapter and stage executor, plus context plumbing for job, stage, and
// correlation identifiers.
//
// Adapters never retry and never panic across the stage boundary; they return
// errors wrapped with one of the classification markers below, and the
// orchestrator alone decides whether to retry, fall back, or terminate the
// job. Everything downstream (retry policy, terminal events, user-visible
// failure reasons) keys off ClassificationOf.
package services
