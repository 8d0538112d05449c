package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

const testAdminEmail = "admin@keen.test"

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := Open(Config{
		Driver:     "sqlite",
		DSN:        ":memory:",
		AdminEmail: testAdminEmail,
	}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenUnsupportedDriver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := Open(Config{Driver: "oracle", DSN: "x"}, logger); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestTestConnection(t *testing.T) {
	d := newTestDB(t)
	ok, err := d.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if !ok {
		t.Error("TestConnection = false for reachable database")
	}
}

func TestInitializeSeedsAdmin(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	if err := d.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	user, err := d.GetUserByEmail(ctx, testAdminEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if !user.IsAdmin {
		t.Error("seeded admin has is_admin = false")
	}
	if user.Username != "admin" {
		t.Errorf("username = %q, want %q", user.Username, "admin")
	}

	priv, err := user.Privileges()
	if err != nil {
		t.Fatalf("Privileges: %v", err)
	}
	if !priv.ManageTenants || !priv.ManageUsers {
		t.Errorf("admin privileges blob incomplete: %+v", priv)
	}
}

func TestInitializeIdempotent(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	if err := d.Initialize(ctx); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	if err := d.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}

	total, admins, err := d.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if admins != 1 {
		t.Errorf("admin count = %d after double initialize, want 1", admins)
	}
	if total != 1 {
		t.Errorf("user count = %d after double initialize, want 1", total)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	if err := d.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	_, err := d.GetUserByEmail(ctx, "nobody@keen.test")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}

func TestGetHealthStatus(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	if err := d.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	status, err := d.GetHealthStatus(ctx)
	if err != nil {
		t.Fatalf("GetHealthStatus: %v", err)
	}
	if !status.Connected {
		t.Error("connected = false for open database")
	}
	if status.Latency < 0 {
		t.Errorf("latency = %f, want >= 0", status.Latency)
	}
	if status.PoolStats.TotalCount < 1 {
		t.Errorf("pool total = %d, want >= 1", status.PoolStats.TotalCount)
	}
	if status.PoolStats.IdleCount > status.PoolStats.TotalCount {
		t.Errorf("pool idle %d exceeds total %d", status.PoolStats.IdleCount, status.PoolStats.TotalCount)
	}
}

func TestSeedFileOverride(t *testing.T) {
	fixture := `
tenants:
  - name: Acme
    slug: acme
users:
  - email: jo@acme.test
    username: jo
    tenant: acme
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := Open(Config{
		Driver:     "sqlite",
		DSN:        ":memory:",
		AdminEmail: testAdminEmail,
		SeedFile:   path,
	}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx := context.Background()
	if err := d.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	user, err := d.GetUserByEmail(ctx, "jo@acme.test")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user.IsAdmin {
		t.Error("seeded regular user has is_admin = true")
	}

	// Admin is always ensured on top of the fixture.
	admin, err := d.GetUserByEmail(ctx, testAdminEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail(admin): %v", err)
	}
	if !admin.IsAdmin {
		t.Error("admin account missing is_admin after fixture override")
	}
}

func TestCloseNeverOpened(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := Open(Config{Driver: "sqlite", DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
