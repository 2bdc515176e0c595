package catalog

import (
	"fmt"
	"strings"
	"time"

	"albumtracker/internal/custody"
)

// State is a point in the album lifecycle.
type State string

const (
	StateListed    State = "listed"
	StatePaid      State = "paid"
	StateDelivered State = "delivered"
)

// States lists every lifecycle state in transition order.
func States() []State {
	return []State{StateListed, StatePaid, StateDelivered}
}

// ParseState converts a user supplied state name.
func ParseState(value string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(value))) {
	case StateListed:
		return StateListed, nil
	case StatePaid:
		return StatePaid, nil
	case StateDelivered:
		return StateDelivered, nil
	default:
		return "", fmt.Errorf("%w: unknown state %q", ErrInvalidInput, value)
	}
}

// Next returns the only state this one may move to.
func (s State) Next() (State, bool) {
	switch s {
	case StateListed:
		return StatePaid, true
	case StatePaid:
		return StateDelivered, true
	default:
		return "", false
	}
}

// Item is one album record.
type Item struct {
	ID             int64
	Title          string
	Price          int64
	State          State
	CustodyAddress custody.Address
	Buyer          custody.Address
	PaidAmount     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         time.Time
	DeliveredAt    time.Time
}

// StateChange records one successful transition. Sequence is assigned by
// the Store and follows the global operation order.
type StateChange struct {
	Sequence       uint64
	ItemID         int64
	State          State
	CustodyAddress custody.Address
	Title          string
	Account        custody.Address
	Amount         int64
	At             time.Time
}

// Stats counts albums per state. Every state is present.
type Stats map[State]int

// Total returns the number of albums in the catalog.
func (s Stats) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// PaymentPolicy controls which payment amounts are accepted.
type PaymentPolicy string

const (
	// PolicyExact accepts only the album price.
	PolicyExact PaymentPolicy = "exact"
	// PolicyAny accepts any positive amount.
	PolicyAny PaymentPolicy = "any"
)

// ParsePaymentPolicy converts a configured policy name. Empty means exact.
func ParsePaymentPolicy(value string) (PaymentPolicy, error) {
	switch PaymentPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyExact:
		return PolicyExact, nil
	case PolicyAny:
		return PolicyAny, nil
	default:
		return "", fmt.Errorf("%w: unknown payment policy %q", ErrInvalidInput, value)
	}
}
