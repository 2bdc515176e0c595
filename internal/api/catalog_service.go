package api

import (
	"context"

	"albumtracker/internal/catalog"
	"albumtracker/internal/custody"
)

// Catalog abstracts the registry operations exposed over the API.
type Catalog interface {
	CreateItem(ctx context.Context, caller custody.Address, price int64, title string) (*catalog.Item, error)
	SubmitPayment(ctx context.Context, payer custody.Address, itemID int64, amount int64) (*catalog.Item, error)
	Transfer(ctx context.Context, payer custody.Address, address custody.Address, amount int64) (*catalog.Item, error)
	TriggerDelivery(ctx context.Context, caller custody.Address, itemID int64) (*catalog.Item, error)
	GetItem(ctx context.Context, itemID int64) (*catalog.Item, error)
	List(ctx context.Context, states ...catalog.State) ([]*catalog.Item, error)
	Balance(ctx context.Context, address custody.Address) (int64, error)
	Stats(ctx context.Context) (catalog.Stats, error)
	Changes(ctx context.Context, since uint64, limit int) ([]catalog.StateChange, error)
}

// CatalogService exposes catalog operations returning API DTOs.
type CatalogService struct {
	catalog Catalog
}

// NewCatalogService constructs a CatalogService around the provided catalog.
func NewCatalogService(c Catalog) *CatalogService {
	if c == nil {
		return nil
	}
	return &CatalogService{catalog: c}
}

// Create lists a new album.
func (s *CatalogService) Create(ctx context.Context, caller string, price int64, title string) (Album, error) {
	item, err := s.catalog.CreateItem(ctx, custody.Address(caller), price, title)
	if err != nil {
		return Album{}, err
	}
	return FromItem(item), nil
}

// Pay submits a payment for an album id.
func (s *CatalogService) Pay(ctx context.Context, payer string, id int64, amount int64) (Album, error) {
	item, err := s.catalog.SubmitPayment(ctx, custody.Address(payer), id, amount)
	if err != nil {
		return Album{}, err
	}
	return FromItem(item), nil
}

// Transfer sends value to a custody address.
func (s *CatalogService) Transfer(ctx context.Context, payer string, req TransferRequest) (Album, error) {
	item, err := s.catalog.Transfer(ctx, custody.Address(payer), custody.Address(req.To), req.Amount)
	if err != nil {
		return Album{}, err
	}
	return FromItem(item), nil
}

// Deliver triggers delivery of a paid album.
func (s *CatalogService) Deliver(ctx context.Context, caller string, id int64) (Album, error) {
	item, err := s.catalog.TriggerDelivery(ctx, custody.Address(caller), id)
	if err != nil {
		return Album{}, err
	}
	return FromItem(item), nil
}

// Describe fetches a single album.
func (s *CatalogService) Describe(ctx context.Context, id int64) (Album, error) {
	item, err := s.catalog.GetItem(ctx, id)
	if err != nil {
		return Album{}, err
	}
	return FromItem(item), nil
}

// List returns albums filtered by state names.
func (s *CatalogService) List(ctx context.Context, states ...string) ([]Album, error) {
	filter := make([]catalog.State, 0, len(states))
	for _, raw := range states {
		state, err := catalog.ParseState(raw)
		if err != nil {
			return nil, err
		}
		filter = append(filter, state)
	}
	items, err := s.catalog.List(ctx, filter...)
	if err != nil {
		return nil, err
	}
	return FromItems(items), nil
}

// Account returns the balance at an address.
func (s *CatalogService) Account(ctx context.Context, address string) (Account, error) {
	balance, err := s.catalog.Balance(ctx, custody.Address(address))
	if err != nil {
		return Account{}, err
	}
	normalized, _ := custody.ParseAddress(address)
	return Account{Address: normalized.String(), Balance: balance}, nil
}

// Stats returns album counts keyed by state name.
func (s *CatalogService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return FromStats(stats), nil
}

// Events returns recorded changes after since.
func (s *CatalogService) Events(ctx context.Context, since uint64, limit int) (EventsResponse, error) {
	changes, err := s.catalog.Changes(ctx, since, limit)
	if err != nil {
		return EventsResponse{}, err
	}
	next := since
	if len(changes) > 0 {
		next = changes[len(changes)-1].Sequence
	}
	return EventsResponse{Events: FromChanges(changes), Next: next}, nil
}
