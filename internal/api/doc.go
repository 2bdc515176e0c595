// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates catalog models into transport-friendly DTOs so the
// CLI and HTTP clients render albums without coupling to internal types.
//
// # Key Types
//
// Album: transport representation of an album with its lifecycle state and
// custody address.
//
// StateChange/EventsResponse: committed state changes for event tailing.
//
// Account: balance held at a custody or payout address.
//
// # Converters
//
// FromItem: catalog.Item -> Album. FromChange: catalog.StateChange ->
// StateChange. FromStats: catalog.Stats -> map keyed by state name.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Lifecycle states are lowercase strings.
// Timestamps use RFC3339 with milliseconds and are omitted when unset.
package api
