package store

import (
	"database/sql"
	"errors"
	"time"

	"albumtracker/internal/catalog"
	"albumtracker/internal/custody"
)

const albumColumns = "id, title, price, state, custody_address, buyer, paid_amount, created_at, updated_at, paid_at, delivered_at"

const changeColumns = "sequence, album_id, state, custody_address, title, account, amount, created_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*catalog.Item, error) {
	var (
		id             int64
		title          string
		price          int64
		stateStr       string
		custodyAddress string
		buyer          sql.NullString
		paidAmount     int64
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
		paidRaw        sql.NullString
		deliveredRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&title,
		&price,
		&stateStr,
		&custodyAddress,
		&buyer,
		&paidAmount,
		&createdRaw,
		&updatedRaw,
		&paidRaw,
		&deliveredRaw,
	); err != nil {
		return nil, err
	}

	item := &catalog.Item{
		ID:             id,
		Title:          title,
		Price:          price,
		State:          catalog.State(stateStr),
		CustodyAddress: custody.Address(custodyAddress),
		Buyer:          custody.Address(buyer.String),
		PaidAmount:     paidAmount,
	}
	item.CreatedAt = parseNullTime(createdRaw)
	item.UpdatedAt = parseNullTime(updatedRaw)
	item.PaidAt = parseNullTime(paidRaw)
	item.DeliveredAt = parseNullTime(deliveredRaw)
	return item, nil
}

func scanChange(scanner interface{ Scan(dest ...any) error }) (catalog.StateChange, error) {
	var (
		sequence       int64
		albumID        int64
		stateStr       string
		custodyAddress string
		title          sql.NullString
		account        sql.NullString
		amount         int64
		createdRaw     sql.NullString
	)
	if err := scanner.Scan(&sequence, &albumID, &stateStr, &custodyAddress, &title, &account, &amount, &createdRaw); err != nil {
		return catalog.StateChange{}, err
	}
	return catalog.StateChange{
		Sequence:       uint64(sequence),
		ItemID:         albumID,
		State:          catalog.State(stateStr),
		CustodyAddress: custody.Address(custodyAddress),
		Title:          title.String,
		Account:        custody.Address(account.String),
		Amount:         amount,
		At:             parseNullTime(createdRaw),
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return formatTime(value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseNullTime(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
