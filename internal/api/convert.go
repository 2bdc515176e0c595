package api

import (
	"time"

	"albumtracker/internal/catalog"
)

// FromItem converts a catalog record to its API representation.
func FromItem(item *catalog.Item) Album {
	if item == nil {
		return Album{}
	}
	return Album{
		ID:             item.ID,
		Title:          item.Title,
		Price:          item.Price,
		State:          string(item.State),
		CustodyAddress: item.CustodyAddress.String(),
		Buyer:          item.Buyer.String(),
		PaidAmount:     item.PaidAmount,
		CreatedAt:      formatTime(item.CreatedAt),
		UpdatedAt:      formatTime(item.UpdatedAt),
		PaidAt:         formatTime(item.PaidAt),
		DeliveredAt:    formatTime(item.DeliveredAt),
	}
}

// FromItems converts a slice of catalog records into API DTOs.
func FromItems(items []*catalog.Item) []Album {
	out := make([]Album, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromChange converts a recorded state change.
func FromChange(change catalog.StateChange) StateChange {
	return StateChange{
		Sequence:       change.Sequence,
		ItemID:         change.ItemID,
		State:          string(change.State),
		CustodyAddress: change.CustodyAddress.String(),
		Title:          change.Title,
		Account:        change.Account.String(),
		Amount:         change.Amount,
		At:             formatTime(change.At),
	}
}

// FromChanges converts a page of state changes.
func FromChanges(changes []catalog.StateChange) []StateChange {
	out := make([]StateChange, 0, len(changes))
	for _, change := range changes {
		out = append(out, FromChange(change))
	}
	return out
}

// FromStats keys album counts by state name, always including every state.
func FromStats(stats catalog.Stats) map[string]int {
	out := make(map[string]int, len(catalog.States()))
	for _, state := range catalog.States() {
		out[string(state)] = stats[state]
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
