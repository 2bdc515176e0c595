package custody

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidAmount is returned when a non-positive amount is received.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrForeignAuthority is returned when Release is called with a token
	// other than the one the unit was opened with.
	ErrForeignAuthority = errors.New("release not authorized for this custody unit")
	// ErrOverflow is returned when a receipt would overflow the balance.
	ErrOverflow = errors.New("custody balance overflow")
)

// Authority is the capability required to release funds. The registry
// creates one at startup and never shares it.
type Authority struct {
	_ byte
}

// NewAuthority returns a fresh release capability.
func NewAuthority() *Authority {
	return &Authority{}
}

// Ledger credits released value to a destination account.
type Ledger interface {
	Credit(ctx context.Context, address Address, amount int64) error
}

// Unit is the holding account for exactly one album.
type Unit struct {
	address   Address
	balance   int64
	authority *Authority
}

// Open restores a unit with its persisted balance, bound to authority.
func Open(authority *Authority, address Address, balance int64) *Unit {
	return &Unit{address: address, balance: balance, authority: authority}
}

// Address returns the unit's account address.
func (u *Unit) Address() Address {
	return u.address
}

// Balance returns the value currently held.
func (u *Unit) Balance() int64 {
	return u.balance
}

// Receive accepts an incoming transfer.
func (u *Unit) Receive(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}
	if u.balance > math.MaxInt64-amount {
		return ErrOverflow
	}
	u.balance += amount
	return nil
}

// Release transfers the whole balance to destination through ledger and
// returns the amount moved. The balance is 0 afterwards. An empty unit
// releases nothing and does not touch the ledger.
func (u *Unit) Release(ctx context.Context, authority *Authority, destination Address, ledger Ledger) (int64, error) {
	if authority == nil || authority != u.authority {
		return 0, ErrForeignAuthority
	}
	if destination == "" {
		return 0, ErrEmptyAddress
	}
	amount := u.balance
	if amount == 0 {
		return 0, nil
	}
	if err := ledger.Credit(ctx, destination, amount); err != nil {
		return 0, fmt.Errorf("credit %s: %w", destination, err)
	}
	u.balance = 0
	return amount, nil
}
