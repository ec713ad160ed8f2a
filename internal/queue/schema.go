package queue

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion tracks the on-disk table layout. There is no migration
// machinery: a bump means existing queue databases must be cleared or
// deleted before the new version can open them.
const schemaVersion = 1

// ErrSchemaMismatch is returned when the database was written by a
// different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	version, initialized, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return s.createSchema(ctx)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'scribe queue clear --all' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// currentSchemaVersion reports the stored schema version. initialized is
// false when the database has never had a schema created in it.
func (s *Store) currentSchemaVersion(ctx context.Context) (version int, initialized bool, err error) {
	var tables int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tables)
	if err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		return 0, false, nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, true, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
