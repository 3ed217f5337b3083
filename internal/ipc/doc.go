// Package ipc implements the daemon control channel: JSON-RPC over a Unix
// domain socket. The server wraps a daemon.Daemon and exposes queue and
// lifecycle operations under the "PodSlice" service name; Client provides
// typed call wrappers for the CLI.
package ipc
