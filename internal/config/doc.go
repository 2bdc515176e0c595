// Package config loads, normalizes, and validates albumtracker configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ALBUMTRACKER_ADMIN. The Config type centralizes every knob the daemon and
// CLI need so the data directory, administrator account and payment policy
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
