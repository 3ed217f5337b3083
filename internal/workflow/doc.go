// Package workflow coordinates episode generation jobs through the staged
// pipeline: transcribe, summarize, synthesize, persist.
//
// The manager is built around a single idempotent step function, Advance.
// Each call performs one bounded unit of work against one job and commits
// its outcome through an optimistic stage-guarded write, so at-least-once
// invocation (poll loops, duplicate deliveries, a crashed-and-restarted
// daemon) is safe: of any number of concurrent duplicate calls, exactly one
// wins the transition and the rest are no-ops. The same guarded write
// decides the single terminal event for a job.
//
// Retry policy lives here and only here; stage executors are single-shot.
package workflow
