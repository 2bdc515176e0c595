package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"albumtracker/internal/testsupport"
)

func TestEventsPrintsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	catalog := env.daemon.Catalog()
	if _, err := catalog.Create(ctx, testsupport.TestAdmin, 9, "Moanin'"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := catalog.Pay(ctx, "0xbuyer", 0, 9); err != nil {
		t.Fatalf("pay: %v", err)
	}

	out, _, err := runCLI(t, []string{"events"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	requireContains(t, out, "listed")
	requireContains(t, out, "paid")
	requireContains(t, out, "account=0xbuyer")

	out, _, err = runCLI(t, []string{"events", "--since", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("events --since: %v", err)
	}
	if strings.Contains(out, "listed") {
		t.Fatalf("expected --since 1 to skip the listing, got:\n%s", out)
	}
	requireContains(t, out, "paid")

	out, _, err = runCLI(t, []string{"events", "--since", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("events --since 2: %v", err)
	}
	requireContains(t, out, "No events")
}

func TestEventsFollow(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.daemon.Catalog().Create(context.Background(), testsupport.TestAdmin, 3, "First"); err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--socket", env.socketPath, "--config", env.configPath, "events", "--follow"})
	cmd.SetContext(ctx)
	stdout := &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "album 0    listed") })
	if _, err := env.daemon.Catalog().Create(context.Background(), testsupport.TestAdmin, 4, "Second"); err != nil {
		t.Fatalf("create second: %v", err)
	}
	waitFor(t, 3*time.Second, func() bool { return strings.Contains(stdout.String(), "album 1    listed") })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events --follow did not exit")
	}
}

func TestEventsPagesThroughLongHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	const albums = 250
	for i := 0; i < albums; i++ {
		if _, err := env.daemon.Catalog().Create(ctx, testsupport.TestAdmin, 1, fmt.Sprintf("Album %d", i)); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	out, _, err := runCLI(t, []string{"--json", "events"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != albums {
		t.Fatalf("expected %d events, got %d", albums, len(lines))
	}
	requireContains(t, lines[len(lines)-1], fmt.Sprintf(`"seq":%d`, albums))

	out, _, err = runCLI(t, []string{"--json", "events", "--limit", "10"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("events --limit: %v", err)
	}
	if got := len(strings.Split(strings.TrimSpace(out), "\n")); got != 10 {
		t.Fatalf("expected 10 events with --limit, got %d", got)
	}
}

func TestEventsFromStoreWithoutDaemon(t *testing.T) {
	env := setupOfflineEnv(t)

	if _, _, err := runCLI(t, []string{"album", "create", "Offline", "--price", "1"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("album create: %v", err)
	}
	out, _, err := runCLI(t, []string{"--json", "events"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	requireContains(t, out, `"state":"listed"`)
	requireContains(t, out, `"seq":1`)
}
