package preflight

import (
	"context"

	"albumtracker/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckAdministrator(cfg.Catalog.AdminAccount),
		CheckNtfy(ctx, cfg.Notifications.NtfyTopic, cfg.NotificationTimeout()),
	}
}

// Failed returns the results that neither passed nor were skipped.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed && !result.Skipped {
			failed = append(failed, result)
		}
	}
	return failed
}
