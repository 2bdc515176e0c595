// Package daemon coordinates the long-running albumtracker process.
//
// It wires the catalog registry, the events hub, Prometheus metrics and the
// ntfy dispatcher into a single lifecycle with flock-based locking to prevent
// multiple instances sharing one data directory. The daemon serves the buyer
// facing HTTP API (chi router, optional bearer token) and exposes the
// catalog service used by the IPC server.
//
// Keep catalog rules in internal/catalog: the daemon only owns startup,
// shutdown and transport concerns.
package daemon
