package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"albumtracker/internal/config"
	"albumtracker/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "albumtracker.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "debug message") {
		t.Fatalf("expected debug line in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without source")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "registry")
	logger.Info("album listed", logging.Int64(logging.FieldItemID, 7), logging.String("title", "Enchantment of the Ring"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO registry: album listed", "item_id=7", `title="Enchantment of the Ring"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", line)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("payment rejected", logging.String(logging.FieldState, "paid"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "payment rejected" || entry["state"] != "paid" {
		t.Fatalf("unexpected json entry %#v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", entry)
	}
}

func TestLoggersRedactSecrets(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logPath := filepath.Join(t.TempDir(), format+".log")
		logger, err := logging.New(logging.Options{Format: format, Level: "info", OutputPaths: []string{logPath}})
		if err != nil {
			t.Fatalf("New(%s) returned error: %v", format, err)
		}
		logger.Info("request",
			logging.String("api_token", "s3cret"),
			logging.String("Authorization", "Bearer s3cret"),
			logging.String(logging.FieldAccount, "0xbuyer"),
		)

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		line := string(content)
		if strings.Contains(line, "s3cret") {
			t.Fatalf("%s log leaked a secret: %q", format, line)
		}
		if !strings.Contains(line, "[redacted]") || !strings.Contains(line, "0xbuyer") {
			t.Fatalf("%s log missing expected fields: %q", format, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsStandardFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.WithItemID(context.Background(), 42)
	ctx = logging.WithCorrelationID(ctx, "req-1")
	logging.WithContext(ctx, base).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldItemID] != float64(42) || entry[logging.FieldCorrelationID] != "req-1" {
		t.Fatalf("missing context fields: %#v", entry)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "notification failed", "notify_failed")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "notify_failed" {
		t.Fatalf("expected event_type, got %#v", entry)
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("expected error_hint default, got %#v", entry)
	}
}

func TestCorrelationIDHelpers(t *testing.T) {
	if _, ok := logging.CorrelationIDFromContext(context.Background()); ok {
		t.Fatal("expected no correlation id on bare context")
	}
	ctx := logging.WithCorrelationID(context.Background(), "  ")
	if _, ok := logging.CorrelationIDFromContext(ctx); ok {
		t.Fatal("blank id should not be stored")
	}
	if a, b := logging.NewCorrelationID(), logging.NewCorrelationID(); a == b || a == "" {
		t.Fatalf("expected distinct ids, got %q and %q", a, b)
	}
}
