package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"albumtracker/internal/catalog"
	"albumtracker/internal/custody"
)

// tx adapts a SQL transaction to catalog.Tx.
type tx struct {
	tx *sql.Tx
}

var _ catalog.Tx = (*tx)(nil)

func (t *tx) NextID(ctx context.Context) (int64, error) {
	var next int64
	if err := t.tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id) + 1, 0) FROM albums").Scan(&next); err != nil {
		return 0, fmt.Errorf("next album id: %w", err)
	}
	return next, nil
}

func (t *tx) Item(ctx context.Context, id int64) (*catalog.Item, error) {
	row := t.tx.QueryRowContext(ctx, "SELECT "+albumColumns+" FROM albums WHERE id = ?", id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("album %d: %w", id, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load album %d: %w", id, err)
	}
	return item, nil
}

func (t *tx) ItemByAddress(ctx context.Context, address custody.Address) (*catalog.Item, error) {
	row := t.tx.QueryRowContext(ctx, "SELECT "+albumColumns+" FROM albums WHERE custody_address = ?", string(address))
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no album at custody address %s: %w", address, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load album by address %s: %w", address, err)
	}
	return item, nil
}

func (t *tx) Items(ctx context.Context, states []catalog.State) ([]*catalog.Item, error) {
	query := "SELECT " + albumColumns + " FROM albums"
	args := make([]any, 0, len(states))
	if len(states) > 0 {
		query += " WHERE state IN (" + makePlaceholders(len(states)) + ")"
		for _, state := range states {
			args = append(args, string(state))
		}
	}
	query += " ORDER BY id"

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	var items []*catalog.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *tx) CountByState(ctx context.Context) (catalog.Stats, error) {
	stats := make(catalog.Stats, 3)
	for _, state := range catalog.States() {
		stats[state] = 0
	}
	rows, err := t.tx.QueryContext(ctx, "SELECT state, COUNT(1) FROM albums GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("count albums: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan album count: %w", err)
		}
		stats[catalog.State(state)] = count
	}
	return stats, rows.Err()
}

func (t *tx) InsertItem(ctx context.Context, item *catalog.Item) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO albums ("+albumColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		item.ID,
		item.Title,
		item.Price,
		string(item.State),
		string(item.CustodyAddress),
		nullableString(string(item.Buyer)),
		item.PaidAmount,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
		nullableTime(item.PaidAt),
		nullableTime(item.DeliveredAt),
	)
	if err != nil {
		return fmt.Errorf("insert album %d: %w", item.ID, err)
	}
	return nil
}

func (t *tx) UpdateItem(ctx context.Context, item *catalog.Item) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE albums SET state = ?, buyer = ?, paid_amount = ?, updated_at = ?, paid_at = ?, delivered_at = ? WHERE id = ?`,
		string(item.State),
		nullableString(string(item.Buyer)),
		item.PaidAmount,
		formatTime(item.UpdatedAt),
		nullableTime(item.PaidAt),
		nullableTime(item.DeliveredAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update album %d: %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("album %d: %w", item.ID, catalog.ErrNotFound)
	}
	return nil
}

func (t *tx) Balance(ctx context.Context, address custody.Address) (int64, bool, error) {
	var balance int64
	err := t.tx.QueryRowContext(ctx, "SELECT balance FROM accounts WHERE address = ?", string(address)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load balance %s: %w", address, err)
	}
	return balance, true, nil
}

func (t *tx) SetBalance(ctx context.Context, address custody.Address, balance int64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO accounts (address, balance, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at`,
		string(address), balance, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set balance %s: %w", address, err)
	}
	return nil
}

// Credit adds amount to the destination account, creating it when needed.
func (t *tx) Credit(ctx context.Context, address custody.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit %s: amount must be positive, got %d", address, amount)
	}
	current, _, err := t.Balance(ctx, address)
	if err != nil {
		return err
	}
	if current > math.MaxInt64-amount {
		return fmt.Errorf("credit %s: %w", address, custody.ErrOverflow)
	}
	return t.SetBalance(ctx, address, current+amount)
}

func (t *tx) AppendChange(ctx context.Context, change *catalog.StateChange) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO state_changes (album_id, state, custody_address, title, account, amount, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		change.ItemID,
		string(change.State),
		string(change.CustodyAddress),
		nullableString(change.Title),
		nullableString(string(change.Account)),
		change.Amount,
		formatTime(change.At),
	)
	if err != nil {
		return fmt.Errorf("record state change for album %d: %w", change.ItemID, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("state change sequence: %w", err)
	}
	change.Sequence = uint64(seq)
	return nil
}

func (t *tx) Changes(ctx context.Context, since uint64, limit int) ([]catalog.StateChange, error) {
	query := "SELECT " + changeColumns + " FROM state_changes WHERE sequence > ? ORDER BY sequence"
	args := []any{int64(since)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list state changes: %w", err)
	}
	defer rows.Close()

	var changes []catalog.StateChange
	for rows.Next() {
		change, err := scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state change: %w", err)
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}
