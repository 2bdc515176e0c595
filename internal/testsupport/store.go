package testsupport

import (
	"context"
	"testing"

	"albumtracker/internal/catalog"
	"albumtracker/internal/config"
	"albumtracker/internal/custody"
	"albumtracker/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustNewRegistry builds a registry over st using the catalog settings in
// cfg. The publisher may be nil.
func MustNewRegistry(t testing.TB, cfg *config.Config, st catalog.Store, publisher catalog.Publisher) *catalog.Registry {
	t.Helper()

	registry, err := catalog.NewRegistry(st, catalog.Options{
		Admin:           custody.Address(cfg.Catalog.AdminAccount),
		RegistryAddress: cfg.Catalog.RegistryAddress,
		Policy:          catalog.PaymentPolicy(cfg.Catalog.PaymentPolicy),
		Publisher:       publisher,
	})
	if err != nil {
		t.Fatalf("catalog.NewRegistry: %v", err)
	}
	return registry
}

// NewAlbum lists an album as the test administrator.
func NewAlbum(t testing.TB, registry *catalog.Registry, price int64, title string) *catalog.Item {
	t.Helper()

	item, err := registry.CreateItem(context.Background(), TestAdmin, price, title)
	if err != nil {
		t.Fatalf("registry.CreateItem: %v", err)
	}
	return item
}
