package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"albumtracker/internal/daemonctl"
	"albumtracker/internal/testsupport"
)

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	registry := testsupport.MustNewRegistry(t, cfg, st, nil)
	testsupport.NewAlbum(t, registry, 10, "Offline A")
	testsupport.NewAlbum(t, registry, 20, "Offline B")

	status, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("expected offline snapshot")
	}
	if status.Counts["listed"] != 2 || status.Counts["paid"] != 0 {
		t.Fatalf("unexpected counts %+v", status.Counts)
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected database path %q", status.DatabasePath)
	}
}

func TestBuildStatusSnapshotWithoutDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	status, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Counts != nil {
		t.Fatalf("expected no counts without a database, got %+v", status.Counts)
	}
	if _, err := os.Stat(cfg.DatabasePath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("status snapshot must not create the database: %v", err)
	}
}

func TestProcessInfoMissingSocket(t *testing.T) {
	alive, pid, err := daemonctl.ProcessInfo(filepath.Join(t.TempDir(), "missing.sock"))
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("expected not alive, got alive=%v pid=%d", alive, pid)
	}
}

func TestStopAndTerminateNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(filepath.Join(t.TempDir(), "missing.sock"), cfg, 10*time.Millisecond)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "albumtracker.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	_, err := daemonctl.ForceKillProcess(pidPath, "", 0)
	if err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal to kill self, got %v", err)
	}

	_, err = daemonctl.ForceKillProcess(filepath.Join(dir, "absent.pid"), "", 0)
	if err == nil || !strings.Contains(err.Error(), "unable to determine") {
		t.Fatalf("expected missing pid error, got %v", err)
	}
}
