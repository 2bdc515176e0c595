// Package catalog implements the album registry: the listed, paid and
// delivered lifecycle, administrator gating, payment routing into per-album
// custody units, and state change notifications.
//
// Every Registry operation runs as a single atomic unit against a Store. The
// Registry serializes its own callers with a mutex and relies on the Store
// transaction for ordering across processes, so a payment check and the
// acceptance of funds can never be split. State changes are recorded in the
// same transaction and handed to a Publisher only after commit.
package catalog
