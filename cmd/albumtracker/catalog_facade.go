package main

import (
	"context"
	"fmt"
	"time"

	"albumtracker/internal/api"
	"albumtracker/internal/catalog"
	"albumtracker/internal/config"
	"albumtracker/internal/custody"
	"albumtracker/internal/ipc"
	"albumtracker/internal/logging"
	"albumtracker/internal/store"
)

const (
	// directFollowInterval is how often a direct-store follow polls for changes.
	directFollowInterval = 500 * time.Millisecond
	// ipcFollowWaitMillis bounds one blocking Events call so cancellation
	// is noticed promptly.
	ipcFollowWaitMillis = 1000
)

type catalogAPI interface {
	Create(ctx context.Context, caller string, price int64, title string) (api.Album, error)
	Pay(ctx context.Context, payer string, id, amount int64) (api.Album, error)
	Transfer(ctx context.Context, payer, to string, amount int64) (api.Album, error)
	Deliver(ctx context.Context, caller string, id int64) (api.Album, error)
	Describe(ctx context.Context, id int64) (api.Album, error)
	List(ctx context.Context, states []string) ([]api.Album, error)
	Balance(ctx context.Context, address string) (api.Account, error)
	Events(ctx context.Context, since uint64, limit int, follow bool) (api.EventsResponse, error)
}

// --- IPC adapter ---

type catalogIPCAdapter struct {
	client *ipc.Client
}

func (a *catalogIPCAdapter) Create(_ context.Context, caller string, price int64, title string) (api.Album, error) {
	resp, err := a.client.AlbumCreate(caller, price, title)
	if err != nil {
		return api.Album{}, err
	}
	return resp.Album, nil
}

func (a *catalogIPCAdapter) Pay(_ context.Context, payer string, id, amount int64) (api.Album, error) {
	resp, err := a.client.AlbumPay(payer, id, amount)
	if err != nil {
		return api.Album{}, err
	}
	return resp.Album, nil
}

func (a *catalogIPCAdapter) Transfer(_ context.Context, payer, to string, amount int64) (api.Album, error) {
	resp, err := a.client.Transfer(payer, to, amount)
	if err != nil {
		return api.Album{}, err
	}
	return resp.Album, nil
}

func (a *catalogIPCAdapter) Deliver(_ context.Context, caller string, id int64) (api.Album, error) {
	resp, err := a.client.AlbumDeliver(caller, id)
	if err != nil {
		return api.Album{}, err
	}
	return resp.Album, nil
}

func (a *catalogIPCAdapter) Describe(_ context.Context, id int64) (api.Album, error) {
	resp, err := a.client.AlbumDescribe(id)
	if err != nil {
		return api.Album{}, err
	}
	return resp.Album, nil
}

func (a *catalogIPCAdapter) List(_ context.Context, states []string) ([]api.Album, error) {
	resp, err := a.client.AlbumList(states)
	if err != nil {
		return nil, err
	}
	return resp.Albums, nil
}

func (a *catalogIPCAdapter) Balance(_ context.Context, address string) (api.Account, error) {
	resp, err := a.client.Balance(address)
	if err != nil {
		return api.Account{}, err
	}
	return api.Account{Address: resp.Address, Balance: resp.Balance}, nil
}

func (a *catalogIPCAdapter) Events(_ context.Context, since uint64, limit int, follow bool) (api.EventsResponse, error) {
	resp, err := a.client.Events(ipc.EventsRequest{Since: since, Limit: limit, Follow: follow, WaitMillis: ipcFollowWaitMillis})
	if err != nil {
		return api.EventsResponse{}, err
	}
	return api.EventsResponse{Events: resp.Events, Next: resp.Next}, nil
}

// --- Direct store adapter ---

// catalogStoreAdapter runs a private registry over the database file. It is
// only used while no daemon is listening, so nothing is published live.
type catalogStoreAdapter struct {
	store   *store.Store
	service *api.CatalogService
}

func openCatalogStore(_ context.Context, cfg *config.Config) (*catalogStoreAdapter, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}
	registry, err := catalog.NewRegistry(st, catalog.Options{
		Admin:           custody.Address(cfg.Catalog.AdminAccount),
		RegistryAddress: cfg.Catalog.RegistryAddress,
		Policy:          catalog.PaymentPolicy(cfg.Catalog.PaymentPolicy),
		Logger:          logging.NewNop(),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create registry: %w", err)
	}
	return &catalogStoreAdapter{store: st, service: api.NewCatalogService(registry)}, nil
}

func (a *catalogStoreAdapter) Close() error {
	return a.store.Close()
}

func (a *catalogStoreAdapter) Create(ctx context.Context, caller string, price int64, title string) (api.Album, error) {
	return a.service.Create(ctx, caller, price, title)
}

func (a *catalogStoreAdapter) Pay(ctx context.Context, payer string, id, amount int64) (api.Album, error) {
	return a.service.Pay(ctx, payer, id, amount)
}

func (a *catalogStoreAdapter) Transfer(ctx context.Context, payer, to string, amount int64) (api.Album, error) {
	return a.service.Transfer(ctx, payer, api.TransferRequest{To: to, Amount: amount})
}

func (a *catalogStoreAdapter) Deliver(ctx context.Context, caller string, id int64) (api.Album, error) {
	return a.service.Deliver(ctx, caller, id)
}

func (a *catalogStoreAdapter) Describe(ctx context.Context, id int64) (api.Album, error) {
	return a.service.Describe(ctx, id)
}

func (a *catalogStoreAdapter) List(ctx context.Context, states []string) ([]api.Album, error) {
	return a.service.List(ctx, states...)
}

func (a *catalogStoreAdapter) Balance(ctx context.Context, address string) (api.Account, error) {
	return a.service.Account(ctx, address)
}

func (a *catalogStoreAdapter) Events(ctx context.Context, since uint64, limit int, follow bool) (api.EventsResponse, error) {
	page, err := a.service.Events(ctx, since, limit)
	if err != nil || !follow || len(page.Events) > 0 {
		return page, err
	}
	timer := time.NewTimer(directFollowInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return page, nil
	case <-timer.C:
	}
	return a.service.Events(ctx, since, limit)
}
