// Package notifications delivers episode terminal events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The two terminal event shapes (episode ready, episode failed)
// are fixed; the orchestrator emits exactly one of them per job.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
