package database

import (
	"context"
	"fmt"
	"strings"
)

// Schema statements are applied in order on every Initialize. Each statement
// is idempotent (IF NOT EXISTS, or an additive ALTER whose duplicate-column
// error is tolerated), so re-running initialization against an existing
// database is a no-op.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		tenant_id BIGINT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		email TEXT UNIQUE NOT NULL,
		username TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		admin_privileges JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_tenant_id ON users(tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		email TEXT UNIQUE NOT NULL,
		username TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		admin_privileges TEXT NOT NULL DEFAULT '{}',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_tenant_id ON users(tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,
}

func (d *DB) applySchema(ctx context.Context) error {
	schema := postgresSchema
	if d.cfg.Driver == "sqlite" {
		schema = sqliteSchema
	}

	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			// Additive ALTER TABLE statements fail if the column already
			// exists; treat "duplicate column" as a no-op so the schema
			// list stays idempotent.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("schema statement failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
