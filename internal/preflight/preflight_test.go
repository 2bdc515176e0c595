package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"albumtracker/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckAdministrator(t *testing.T) {
	if result := CheckAdministrator("  "); result.Passed {
		t.Fatal("expected blank admin to fail")
	}
	result := CheckAdministrator(" 0xAdmin ")
	if !result.Passed || result.Detail != "0xadmin" {
		t.Fatalf("unexpected result %+v", result)
	}
	derived := CheckAdministrator("0x" + strings.Repeat("ab", 20))
	if !derived.Passed || !strings.Contains(derived.Detail, "custody address") {
		t.Fatalf("expected custody-shaped admin warning, got %+v", derived)
	}
}

func TestCheckNtfy(t *testing.T) {
	if result := CheckNtfy(context.Background(), "", time.Second); !result.Skipped {
		t.Fatalf("expected empty topic to be skipped, got %+v", result)
	}

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	if result := CheckNtfy(context.Background(), ok.URL+"/albums", time.Second); !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	result := CheckNtfy(context.Background(), broken.URL, time.Second)
	if result.Passed || !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected server error, got %+v", result)
	}
}

func TestRunAllAndFailed(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing")
	cfg.Catalog.AdminAccount = "0xadmin"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected four checks, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("expected only the log directory to fail, got %+v", failed)
	}
}
