package database

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keenhq/keen/internal/model"
)

//go:embed seed.yaml
var defaultSeed []byte

// systemTenantSlug is the tenant that owns the administrator account.
const systemTenantSlug = "system"

// seedFixture is the YAML shape of a seed file.
type seedFixture struct {
	Tenants []seedTenant `yaml:"tenants"`
	Users   []seedUser   `yaml:"users"`
}

type seedTenant struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type seedUser struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Tenant   string `yaml:"tenant"`
}

// applySeed loads the fixture (file override or embedded default), upserts
// tenants and users, and finally guarantees the configured administrator
// account exists with admin rights. Every write is an upsert keyed on the
// natural identifier, so seeding is idempotent.
func (d *DB) applySeed(ctx context.Context) error {
	data := defaultSeed
	if d.cfg.SeedFile != "" {
		b, err := os.ReadFile(d.cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		data = b
	}

	var fixture seedFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("parse seed fixture: %w", err)
	}

	for _, t := range fixture.Tenants {
		if err := d.upsertTenant(ctx, t.Name, t.Slug); err != nil {
			return fmt.Errorf("seed tenant %q: %w", t.Slug, err)
		}
	}
	for _, u := range fixture.Users {
		if err := d.upsertUser(ctx, u, false, nil); err != nil {
			return fmt.Errorf("seed user %q: %w", u.Email, err)
		}
	}

	return d.ensureAdmin(ctx)
}

// ensureAdmin upserts the administrator account named by the configuration
// into the system tenant with a full privileges blob.
func (d *DB) ensureAdmin(ctx context.Context) error {
	if d.cfg.AdminEmail == "" {
		return fmt.Errorf("admin email not configured")
	}
	if err := d.upsertTenant(ctx, "System", systemTenantSlug); err != nil {
		return fmt.Errorf("seed system tenant: %w", err)
	}

	privileges, err := json.Marshal(model.AdminPrivileges{
		ManageTenants: true,
		ManageUsers:   true,
		ManageBilling: true,
		ViewAuditLog:  true,
	})
	if err != nil {
		return fmt.Errorf("marshal admin privileges: %w", err)
	}

	admin := seedUser{
		Email:    d.cfg.AdminEmail,
		Username: "admin",
		Tenant:   systemTenantSlug,
	}
	if err := d.upsertUser(ctx, admin, true, privileges); err != nil {
		return fmt.Errorf("seed admin %q: %w", d.cfg.AdminEmail, err)
	}
	d.logger.Info("administrator account ensured", "email", d.cfg.AdminEmail)
	return nil
}

func (d *DB) upsertTenant(ctx context.Context, name, slug string) error {
	now := time.Now().UTC()
	query := d.db.Rebind(`INSERT INTO tenants (name, slug, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`)
	_, err := d.db.ExecContext(ctx, query, name, slug, true, now, now)
	return err
}

func (d *DB) upsertUser(ctx context.Context, u seedUser, isAdmin bool, privileges []byte) error {
	tenant := u.Tenant
	if tenant == "" {
		tenant = systemTenantSlug
	}
	var tenantID int64
	query := d.db.Rebind(`SELECT id FROM tenants WHERE slug = ?`)
	if err := d.db.GetContext(ctx, &tenantID, query, tenant); err != nil {
		return fmt.Errorf("resolve tenant %q: %w", tenant, err)
	}

	now := time.Now().UTC()
	privParam := "{}"
	if privileges != nil {
		privParam = string(privileges)
	}
	query = d.db.Rebind(`INSERT INTO users
		(tenant_id, email, username, is_admin, admin_privileges, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			username = excluded.username,
			is_admin = excluded.is_admin,
			admin_privileges = excluded.admin_privileges,
			updated_at = excluded.updated_at`)
	_, err := d.db.ExecContext(ctx, query, tenantID, u.Email, u.Username, isAdmin, privParam, true, now, now)
	return err
}
