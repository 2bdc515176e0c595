package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"albumtracker/internal/catalog"
	"albumtracker/internal/custody"
	"albumtracker/internal/store"
	"albumtracker/internal/testsupport"
)

func insertAlbum(t *testing.T, st *store.Store, title string, price int64) *catalog.Item {
	t.Helper()
	var item *catalog.Item
	err := st.Atomically(context.Background(), func(tx catalog.Tx) error {
		id, err := tx.NextID(context.Background())
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		item = &catalog.Item{
			ID:             id,
			Title:          title,
			Price:          price,
			State:          catalog.StateListed,
			CustodyAddress: custody.DeriveAddress("test", id),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.InsertItem(context.Background(), item)
	})
	if err != nil {
		t.Fatalf("insert album: %v", err)
	}
	return item
}

func TestOpenCreatesSchemaAndAssignsZeroBasedIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first := insertAlbum(t, st, "First", 10)
	second := insertAlbum(t, st, "Second", 20)
	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("expected ids 0 and 1, got %d and %d", first.ID, second.ID)
	}

	ctx := context.Background()
	err := st.Atomically(ctx, func(tx catalog.Tx) error {
		got, err := tx.Item(ctx, 1)
		if err != nil {
			return err
		}
		if got.Title != "Second" || got.Price != 20 || got.State != catalog.StateListed {
			t.Fatalf("unexpected album %+v", got)
		}
		byAddr, err := tx.ItemByAddress(ctx, first.CustodyAddress)
		if err != nil {
			return err
		}
		if byAddr.ID != 0 {
			t.Fatalf("expected album 0 by address, got %d", byAddr.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	insertAlbum(t, st, "Persisted", 5)
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	err = reopened.Atomically(ctx, func(tx catalog.Tx) error {
		items, err := tx.Items(ctx, nil)
		if err != nil {
			return err
		}
		if len(items) != 1 || items[0].Title != "Persisted" {
			t.Fatalf("unexpected items after reopen: %+v", items)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
}

func TestItemMissingReturnsNotFound(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	err := st.Atomically(ctx, func(tx catalog.Tx) error {
		_, err := tx.Item(ctx, 7)
		return err
	})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	err = st.Atomically(ctx, func(tx catalog.Tx) error {
		_, err := tx.ItemByAddress(ctx, "0xnowhere")
		return err
	})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound by address, got %v", err)
	}
}

func TestAtomicallyRollsBackOnError(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.Atomically(ctx, func(tx catalog.Tx) error {
		if err := tx.SetBalance(ctx, "0xunit", 100); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = st.Atomically(ctx, func(tx catalog.Tx) error {
		_, exists, err := tx.Balance(ctx, "0xunit")
		if err != nil {
			return err
		}
		if exists {
			t.Fatal("rolled back balance must not exist")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
}

func TestCreditAccumulatesAndCountsByState(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	insertAlbum(t, st, "A", 1)
	insertAlbum(t, st, "B", 2)

	err := st.Atomically(ctx, func(tx catalog.Tx) error {
		if err := tx.Credit(ctx, "0xadmin", 30); err != nil {
			return err
		}
		if err := tx.Credit(ctx, "0xadmin", 12); err != nil {
			return err
		}
		if err := tx.Credit(ctx, "0xadmin", 0); err == nil {
			t.Fatal("expected zero credit to fail")
		}
		balance, exists, err := tx.Balance(ctx, "0xadmin")
		if err != nil {
			return err
		}
		if !exists || balance != 42 {
			t.Fatalf("expected balance 42, got %d exists=%v", balance, exists)
		}

		stats, err := tx.CountByState(ctx)
		if err != nil {
			return err
		}
		if stats[catalog.StateListed] != 2 || stats[catalog.StatePaid] != 0 || stats[catalog.StateDelivered] != 0 {
			t.Fatalf("unexpected stats %v", stats)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically: %v", err)
	}
}

func TestSchemaRejectsBackwardTransitionsAndDeletes(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := insertAlbum(t, st, "Guarded", 9)

	skip := *item
	skip.State = catalog.StateDelivered
	err := st.Atomically(ctx, func(tx catalog.Tx) error { return tx.UpdateItem(ctx, &skip) })
	if err == nil {
		t.Fatal("expected listed -> delivered to be rejected by the schema")
	}

	paid := *item
	paid.State = catalog.StatePaid
	if err := st.Atomically(ctx, func(tx catalog.Tx) error { return tx.UpdateItem(ctx, &paid) }); err != nil {
		t.Fatalf("listed -> paid: %v", err)
	}
	back := paid
	back.State = catalog.StateListed
	if err := st.Atomically(ctx, func(tx catalog.Tx) error { return tx.UpdateItem(ctx, &back) }); err == nil {
		t.Fatal("expected paid -> listed to be rejected by the schema")
	}

	db, err := sql.Open("sqlite", st.Path())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("DELETE FROM albums WHERE id = ?", item.ID); err == nil {
		t.Fatal("expected delete to be rejected")
	}
}

func TestChangesAreSequencedAndPaged(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := insertAlbum(t, st, "Logged", 3)

	var recorded []uint64
	for _, state := range catalog.States() {
		change := catalog.StateChange{ItemID: item.ID, State: state, CustodyAddress: item.CustodyAddress, At: time.Now()}
		if err := st.Atomically(ctx, func(tx catalog.Tx) error { return tx.AppendChange(ctx, &change) }); err != nil {
			t.Fatalf("AppendChange: %v", err)
		}
		recorded = append(recorded, change.Sequence)
	}
	if recorded[0] >= recorded[1] || recorded[1] >= recorded[2] {
		t.Fatalf("expected increasing sequences, got %v", recorded)
	}

	var page []catalog.StateChange
	err := st.Atomically(ctx, func(tx catalog.Tx) error {
		var err error
		page, err = tx.Changes(ctx, recorded[0], 1)
		return err
	})
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if len(page) != 1 || page[0].Sequence != recorded[1] || page[0].State != catalog.StatePaid {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestOpenPathRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	st, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	st.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
