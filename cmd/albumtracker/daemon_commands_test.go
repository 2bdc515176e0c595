package main

import (
	"context"
	"encoding/json"
	"testing"

	"albumtracker/internal/ipc"
	"albumtracker/internal/testsupport"
)

func TestDaemonStartStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== System Checks ==")
	requireContains(t, out, "(read/write ok)")
	requireContains(t, out, "[INFO] not configured")
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "[ERROR] Not running")
	requireContains(t, out, "Catalog is empty")

	out, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	out, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	requireContains(t, out, "Daemon already running")

	if _, err := env.daemon.Catalog().Create(context.Background(), testsupport.TestAdmin, 12, "Giant Steps"); err != nil {
		t.Fatalf("create album: %v", err)
	}

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[OK] Running")
	requireContains(t, out, "Administrator:")
	requireContains(t, out, testsupport.TestAdmin)
	requireContains(t, out, "Listed")
	requireContains(t, out, "Total")
}

func TestDaemonStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"--json", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status ipc.StatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if status.Admin != testsupport.TestAdmin || status.PaymentPolicy != "exact" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestDaemonCommandsWithoutDaemon(t *testing.T) {
	env := setupOfflineEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")

	_, _, err = runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected test-notify to require the daemon")
	}
	requireContains(t, err.Error(), "albumtracker start")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestBuildCatalogStatusRows(t *testing.T) {
	if rows := buildCatalogStatusRows(nil); rows != nil {
		t.Fatalf("expected no rows for nil counts, got %v", rows)
	}
	if rows := buildCatalogStatusRows(map[string]int{"listed": 0}); rows != nil {
		t.Fatalf("expected no rows for zero counts, got %v", rows)
	}
	rows := buildCatalogStatusRows(map[string]int{"listed": 2, "delivered": 1})
	if len(rows) != 4 {
		t.Fatalf("expected three states plus total, got %v", rows)
	}
	if rows[0][0] != "Listed" || rows[0][1] != "2" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if rows[3][0] != "Total" || rows[3][1] != "3" {
		t.Fatalf("unexpected total row %v", rows[3])
	}
}
