package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	return retryOnBusy(ctx, func() error {
		var tableExists int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
		).Scan(&tableExists)
		if err != nil {
			return fmt.Errorf("check schema_version table: %w", err)
		}

		if tableExists == 0 {
			return s.createSchema(ctx)
		}

		var version int
		err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		if version != schemaVersion {
			return fmt.Errorf("%w: database has version %d, expected %d",
				ErrSchemaMismatch, version, schemaVersion)
		}
		return nil
	})
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Another process may have created the schema while we waited for the lock.
	var existing int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&existing); err != nil {
		return fmt.Errorf("recheck schema_version table: %w", err)
	}
	if existing > 0 {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
