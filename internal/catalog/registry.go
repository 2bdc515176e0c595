package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"albumtracker/internal/custody"
	"albumtracker/internal/logging"
)

// Options configures a Registry.
type Options struct {
	// Admin is the only account allowed to list albums and trigger
	// delivery. Delivered funds are credited to it.
	Admin custody.Address
	// RegistryAddress seeds custody address derivation.
	RegistryAddress string
	Policy          PaymentPolicy
	Publisher       Publisher
	Observer        Observer
	Logger          *slog.Logger
	Clock           func() time.Time
}

// Registry owns the album catalog.
type Registry struct {
	mu        sync.Mutex
	store     Store
	authority *custody.Authority
	admin     custody.Address
	registry  string
	policy    PaymentPolicy
	publisher Publisher
	observer  Observer
	logger    *slog.Logger
	clock     func() time.Time
}

// NewRegistry builds a registry over store.
func NewRegistry(store Store, opts Options) (*Registry, error) {
	if store == nil {
		return nil, errors.New("catalog store is required")
	}
	admin, err := custody.ParseAddress(string(opts.Admin))
	if err != nil {
		return nil, fmt.Errorf("administrator account: %w", err)
	}
	registry := strings.TrimSpace(opts.RegistryAddress)
	if registry == "" {
		return nil, errors.New("registry address is required")
	}
	policy, err := ParsePaymentPolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		store:     store,
		authority: custody.NewAuthority(),
		admin:     admin,
		registry:  registry,
		policy:    policy,
		publisher: opts.Publisher,
		observer:  opts.Observer,
		logger:    logging.NewComponentLogger(opts.Logger, "registry"),
		clock:     clock,
	}, nil
}

// Admin returns the administrator account.
func (r *Registry) Admin() custody.Address {
	return r.admin
}

// Policy returns the active payment policy.
func (r *Registry) Policy() PaymentPolicy {
	return r.policy
}

// CreateItem lists a new album with its own custody unit.
func (r *Registry) CreateItem(ctx context.Context, caller custody.Address, price int64, title string) (*Item, error) {
	const op = "create"
	if err := r.requireAdmin(caller); err != nil {
		return nil, r.reject(ctx, op, err)
	}
	title = normalizeTitle(title)
	if price <= 0 {
		return nil, r.reject(ctx, op, fmt.Errorf("%w: price must be positive, got %d", ErrInvalidInput, price))
	}
	if title == "" {
		return nil, r.reject(ctx, op, fmt.Errorf("%w: title is required", ErrInvalidInput))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		item   *Item
		change StateChange
	)
	err := r.store.Atomically(ctx, func(tx Tx) error {
		id, err := tx.NextID(ctx)
		if err != nil {
			return err
		}
		now := r.now()
		item = &Item{
			ID:             id,
			Title:          title,
			Price:          price,
			State:          StateListed,
			CustodyAddress: custody.DeriveAddress(r.registry, id),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertItem(ctx, item); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, item.CustodyAddress, 0); err != nil {
			return err
		}
		change = StateChange{
			ItemID:         id,
			State:          StateListed,
			CustodyAddress: item.CustodyAddress,
			Account:        caller,
			At:             now,
		}
		return tx.AppendChange(ctx, &change)
	})
	if err != nil {
		return nil, r.reject(ctx, op, err)
	}

	r.log(ctx, item.ID).Info("album listed",
		logging.Int64("price", price),
		logging.String("title", title),
		logging.String(logging.FieldCustodyAddress, item.CustodyAddress.String()),
	)
	r.publish(change)
	return item, nil
}

// SubmitPayment pays for the album with the given id.
func (r *Registry) SubmitPayment(ctx context.Context, payer custody.Address, itemID int64, amount int64) (*Item, error) {
	return r.pay(ctx, payer, amount, func(tx Tx) (*Item, error) {
		return tx.Item(ctx, itemID)
	})
}

// Transfer delivers value addressed to a custody address. The owning album
// is resolved and paid for in the same atomic unit.
func (r *Registry) Transfer(ctx context.Context, payer custody.Address, address custody.Address, amount int64) (*Item, error) {
	target, err := custody.ParseAddress(string(address))
	if err != nil {
		return nil, r.reject(ctx, "pay", fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	return r.pay(ctx, payer, amount, func(tx Tx) (*Item, error) {
		return tx.ItemByAddress(ctx, target)
	})
}

func (r *Registry) pay(ctx context.Context, payer custody.Address, amount int64, resolve func(Tx) (*Item, error)) (*Item, error) {
	const op = "pay"
	buyer, err := custody.ParseAddress(string(payer))
	if err != nil {
		return nil, r.reject(ctx, op, fmt.Errorf("%w: payer %w", ErrInvalidInput, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		item   *Item
		change StateChange
	)
	err = r.store.Atomically(ctx, func(tx Tx) error {
		var err error
		item, err = resolve(tx)
		if err != nil {
			return err
		}
		next, _ := item.State.Next()
		if next != StatePaid {
			return fmt.Errorf("album %d is %s: %w", item.ID, item.State, ErrAlreadyPurchased)
		}
		if err := r.checkAmount(item, amount); err != nil {
			return err
		}

		balance, _, err := tx.Balance(ctx, item.CustodyAddress)
		if err != nil {
			return err
		}
		unit := custody.Open(r.authority, item.CustodyAddress, balance)
		if err := unit.Receive(amount); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if err := tx.SetBalance(ctx, unit.Address(), unit.Balance()); err != nil {
			return err
		}

		now := r.now()
		item.State = next
		item.Buyer = buyer
		item.PaidAmount = amount
		item.PaidAt = now
		item.UpdatedAt = now
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		change = StateChange{
			ItemID:         item.ID,
			State:          StatePaid,
			CustodyAddress: item.CustodyAddress,
			Account:        buyer,
			Amount:         amount,
			At:             now,
		}
		return tx.AppendChange(ctx, &change)
	})
	if err != nil {
		return nil, r.reject(ctx, op, err)
	}

	r.log(ctx, item.ID).Info("payment accepted",
		logging.String(logging.FieldAccount, buyer.String()),
		logging.Int64(logging.FieldAmount, amount),
	)
	r.publish(change)
	return item, nil
}

func (r *Registry) checkAmount(item *Item, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidInput, amount)
	}
	if r.policy == PolicyExact && amount != item.Price {
		return fmt.Errorf("%w: album %d costs %d, got %d", ErrInvalidInput, item.ID, item.Price, amount)
	}
	return nil
}

// TriggerDelivery releases the album's custody balance to the administrator
// and marks it delivered.
func (r *Registry) TriggerDelivery(ctx context.Context, caller custody.Address, itemID int64) (*Item, error) {
	const op = "deliver"
	if err := r.requireAdmin(caller); err != nil {
		return nil, r.reject(ctx, op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		item     *Item
		change   StateChange
		released int64
	)
	err := r.store.Atomically(ctx, func(tx Tx) error {
		var err error
		item, err = tx.Item(ctx, itemID)
		if err != nil {
			return err
		}
		next, ok := item.State.Next()
		switch {
		case !ok:
			return fmt.Errorf("album %d: %w", item.ID, ErrAlreadyDelivered)
		case next != StateDelivered:
			return fmt.Errorf("album %d: %w", item.ID, ErrNotPaid)
		}

		balance, _, err := tx.Balance(ctx, item.CustodyAddress)
		if err != nil {
			return err
		}
		unit := custody.Open(r.authority, item.CustodyAddress, balance)
		released, err = unit.Release(ctx, r.authority, r.admin, tx)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, unit.Address(), unit.Balance()); err != nil {
			return err
		}

		now := r.now()
		item.State = next
		item.DeliveredAt = now
		item.UpdatedAt = now
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		change = StateChange{
			ItemID:         item.ID,
			State:          StateDelivered,
			CustodyAddress: item.CustodyAddress,
			Title:          item.Title,
			Account:        r.admin,
			Amount:         released,
			At:             now,
		}
		return tx.AppendChange(ctx, &change)
	})
	if err != nil {
		return nil, r.reject(ctx, op, err)
	}

	r.log(ctx, item.ID).Info("album delivered",
		logging.Int64(logging.FieldAmount, released),
		logging.String(logging.FieldAccount, r.admin.String()),
	)
	r.publish(change)
	return item, nil
}

// GetItem returns the album with the given id.
func (r *Registry) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	var item *Item
	err := r.store.Atomically(ctx, func(tx Tx) error {
		var err error
		item, err = tx.Item(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// List returns albums ordered by id, optionally filtered by state.
func (r *Registry) List(ctx context.Context, states ...State) ([]*Item, error) {
	var items []*Item
	err := r.store.Atomically(ctx, func(tx Tx) error {
		var err error
		items, err = tx.Items(ctx, states)
		return err
	})
	return items, err
}

// Balance returns the value held at a custody or payout account.
func (r *Registry) Balance(ctx context.Context, address custody.Address) (int64, error) {
	target, err := custody.ParseAddress(string(address))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	var balance int64
	err = r.store.Atomically(ctx, func(tx Tx) error {
		var (
			exists bool
			err    error
		)
		balance, exists, err = tx.Balance(ctx, target)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("account %s: %w", target, ErrNotFound)
		}
		return nil
	})
	return balance, err
}

// Stats counts albums per state.
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.store.Atomically(ctx, func(tx Tx) error {
		var err error
		stats, err = tx.CountByState(ctx)
		return err
	})
	return stats, err
}

// Changes returns recorded state changes with a sequence greater than since.
func (r *Registry) Changes(ctx context.Context, since uint64, limit int) ([]StateChange, error) {
	var changes []StateChange
	err := r.store.Atomically(ctx, func(tx Tx) error {
		var err error
		changes, err = tx.Changes(ctx, since, limit)
		return err
	})
	return changes, err
}

func (r *Registry) requireAdmin(caller custody.Address) error {
	account, err := custody.ParseAddress(string(caller))
	if err != nil || account != r.admin {
		return fmt.Errorf("caller %q is not the administrator: %w", caller, ErrUnauthorized)
	}
	return nil
}

func (r *Registry) reject(ctx context.Context, operation string, err error) error {
	kind := Kind(err)
	if r.observer != nil {
		r.observer.Rejected(operation, kind)
	}
	logger := r.log(ctx, -1)
	if kind == KindInternal {
		logging.ErrorWithContext(logger, "catalog operation failed", "catalog_"+operation+"_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the catalog database and daemon log"),
		)
		return err
	}
	logger.Info("catalog operation rejected",
		logging.String("operation", operation),
		logging.String("kind", kind),
		logging.Error(err),
	)
	return err
}

func (r *Registry) publish(change StateChange) {
	if r.publisher != nil {
		r.publisher.Publish(change)
	}
}

func (r *Registry) log(ctx context.Context, itemID int64) *slog.Logger {
	logger := logging.WithContext(ctx, r.logger)
	if itemID >= 0 {
		if _, ok := logging.ItemIDFromContext(ctx); !ok {
			logger = logger.With(logging.Int64(logging.FieldItemID, itemID))
		}
	}
	return logger
}

func (r *Registry) now() time.Time {
	return r.clock().UTC()
}

func normalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}
