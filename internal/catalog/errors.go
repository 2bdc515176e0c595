package catalog

import "errors"

// Sentinel errors returned by Registry operations. Callers match them with
// errors.Is; Kind maps them to stable transport names.
var (
	// ErrUnauthorized rejects a caller that is not the administrator.
	ErrUnauthorized     = errors.New("unauthorized")
	// ErrNotFound reports an unknown album id or custody address.
	ErrNotFound         = errors.New("album not found")
	// ErrAlreadyPurchased rejects a payment for an album that is not listed.
	ErrAlreadyPurchased = errors.New("album is already purchased")
	// ErrNotPaid rejects delivery of an album nobody has paid for.
	ErrNotPaid          = errors.New("album is not paid for")
	// ErrAlreadyDelivered rejects a second delivery.
	ErrAlreadyDelivered = errors.New("album is already delivered")
	// ErrInvalidInput covers malformed titles, prices, amounts and states.
	ErrInvalidInput     = errors.New("invalid input")
)

// Stable kind names used by transports.
const (
	KindUnauthorized     = "unauthorized"
	KindNotFound         = "not_found"
	KindAlreadyPurchased = "already_purchased"
	KindNotPaid          = "not_paid"
	KindAlreadyDelivered = "already_delivered"
	KindInvalidInput     = "invalid_input"
	KindInternal         = "internal"
)

var kinds = []struct {
	kind string
	err  error
}{
	{KindUnauthorized, ErrUnauthorized},
	{KindNotFound, ErrNotFound},
	{KindAlreadyPurchased, ErrAlreadyPurchased},
	{KindNotPaid, ErrNotPaid},
	{KindAlreadyDelivered, ErrAlreadyDelivered},
	{KindInvalidInput, ErrInvalidInput},
}

// Kind maps err to its stable kind name. Errors that wrap none of the
// catalog sentinels are "internal"; nil maps to "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// KindError returns the sentinel for a kind name, or nil when unknown.
func KindError(kind string) error {
	for _, k := range kinds {
		if k.kind == kind {
			return k.err
		}
	}
	return nil
}
