// Package preflight provides readiness checks for the filesystem paths and
// external services albumtracker depends on.
//
// The daemon runs RunAll at startup and logs failed checks as warnings. The
// CLI "albumtracker status" command renders the same results. Checks for
// optional features report Skipped when the feature is not configured.
package preflight
