// Package store persists the album catalog in SQLite.
//
// The Store implements catalog.Store: every call to Atomically runs inside an
// immediate transaction, so the daemon and a CLI opened in direct mode
// serialize on the database file. Albums, account balances and the state
// change log share that transaction, which keeps the durable event sequence
// in the same order as the operations that produced it.
//
// The catalog is append-only. Triggers in schema.sql reject deletes and any
// state update that is not a single forward step. Schema changes bump the
// version in schema.go.
package store
