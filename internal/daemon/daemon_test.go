package daemon_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"albumtracker/internal/catalog"
	"albumtracker/internal/daemon"
	"albumtracker/internal/logging"
	"albumtracker/internal/testsupport"
)

func newDaemon(t *testing.T, cfgOpts ...testsupport.ConfigOption) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, cfgOpts...)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(context.Background(), cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if strings.HasSuffix(status.APIBind, ":0") {
		t.Fatalf("expected resolved api address, got %q", status.APIBind)
	}
	if status.Admin != testsupport.TestAdmin {
		t.Fatalf("unexpected admin %q", status.Admin)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := daemon.New(context.Background(), cfg, testsupport.MustOpenStore(t, cfg), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { first.Close() })
	second, err := daemon.New(context.Background(), cfg, testsupport.MustOpenStore(t, cfg), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { second.Close() })

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first start: %v", err)
	}
	err = second.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock contention, got %v", err)
	}
}

func TestDaemonRestoresHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	registry := testsupport.MustNewRegistry(t, cfg, st, nil)
	item := testsupport.NewAlbum(t, registry, 100, "Enchantment of the Ring")
	if _, err := registry.SubmitPayment(context.Background(), "0xbuyer", item.ID, 100); err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}

	d, err := daemon.New(context.Background(), cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	resp, err := d.Events(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(resp.Events) != 2 || resp.Next != 2 {
		t.Fatalf("expected two restored events ending at 2, got %+v", resp)
	}
	if resp.Events[1].State != string(catalog.StatePaid) || resp.Events[1].Amount != 100 {
		t.Fatalf("unexpected paid event %+v", resp.Events[1])
	}

	status := d.Status(context.Background())
	if status.Counts[string(catalog.StatePaid)] != 1 || status.Counts[string(catalog.StateListed)] != 0 {
		t.Fatalf("unexpected counts %+v", status.Counts)
	}
}

func TestDaemonEventsFollowWakesOnChange(t *testing.T) {
	d := newDaemon(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		count int
		next  uint64
		err   error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := d.Events(ctx, 0, 10, true)
		done <- result{count: len(resp.Events), next: resp.Next, err: err}
	}()

	time.Sleep(50 * time.Millisecond)
	if _, err := d.Catalog().Create(ctx, testsupport.TestAdmin, 25, "Night Drive"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Events: %v", res.err)
		}
		if res.count != 1 || res.next != 1 {
			t.Fatalf("expected one event at sequence 1, got %+v", res)
		}
	case <-ctx.Done():
		t.Fatal("follow did not wake up")
	}
}

func TestDaemonEventsFollowTimesOutEmpty(t *testing.T) {
	d := newDaemon(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	resp, err := d.Events(ctx, 0, 10, true)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(resp.Events) != 0 || resp.Next != 0 {
		t.Fatalf("expected empty page, got %+v", resp)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	d := newDaemon(t)
	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent || message != "ntfy topic not configured" {
		t.Fatalf("unexpected result sent=%v message=%q", sent, message)
	}
}
