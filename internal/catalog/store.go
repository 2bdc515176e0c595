package catalog

import (
	"context"

	"albumtracker/internal/custody"
)

// Store runs fn inside one serializable transaction. A non-nil error from
// fn rolls back every write it made.
type Store interface {
	Atomically(ctx context.Context, fn func(Tx) error) error
}

// Tx is the row-level surface the Registry needs inside a transaction. It
// also credits released custody funds, so it satisfies custody.Ledger.
type Tx interface {
	custody.Ledger

	NextID(ctx context.Context) (int64, error)
	Item(ctx context.Context, id int64) (*Item, error)
	ItemByAddress(ctx context.Context, address custody.Address) (*Item, error)
	Items(ctx context.Context, states []State) ([]*Item, error)
	CountByState(ctx context.Context) (Stats, error)
	InsertItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error

	// Balance returns the balance held at address and whether the account exists.
	Balance(ctx context.Context, address custody.Address) (int64, bool, error)
	SetBalance(ctx context.Context, address custody.Address, balance int64) error

	AppendChange(ctx context.Context, change *StateChange) error
	Changes(ctx context.Context, since uint64, limit int) ([]StateChange, error)
}

// Publisher receives committed state changes in sequence order. Publish
// must not block.
type Publisher interface {
	Publish(change StateChange)
}

// Observer is notified of rejected operations.
type Observer interface {
	Rejected(operation, kind string)
}
