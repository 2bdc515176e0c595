// Package notifications delivers album sale and delivery events via ntfy.
//
// NewService publishes to the topic configured in config.toml and degrades to
// a no-op when no topic is set. Dispatcher adapts a Service to an events
// sink: it queues state changes without blocking the registry and sends them
// from its own goroutine.
package notifications
