// Package main hosts the albumtracker CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into IPC calls against
// the daemon: daemon lifecycle, album listing, payment and delivery, balance
// lookups, and the state change feed. When the daemon socket is absent,
// catalog commands open the store directly so the tool stays usable offline.
//
// Keep this package thin. New behavior belongs in the internal packages and
// is surfaced here through a command or flag.
package main
