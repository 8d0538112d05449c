package model

import (
	"encoding/json"
	"testing"

	"github.com/jmoiron/sqlx/types"
)

func TestUserPrivileges(t *testing.T) {
	u := &User{
		Email:           "admin@keen.test",
		IsAdmin:         true,
		AdminPrivileges: types.JSONText(`{"manage_tenants":true,"manage_users":true,"allowed_actions":["impersonate"]}`),
	}

	priv, err := u.Privileges()
	if err != nil {
		t.Fatalf("Privileges: %v", err)
	}
	if !priv.ManageTenants || !priv.ManageUsers {
		t.Errorf("privileges = %+v, want manage_tenants and manage_users", priv)
	}
	if len(priv.AllowedActions) != 1 || priv.AllowedActions[0] != "impersonate" {
		t.Errorf("allowed actions = %v", priv.AllowedActions)
	}
}

func TestUserPrivilegesEmpty(t *testing.T) {
	u := &User{Email: "jo@acme.test"}
	priv, err := u.Privileges()
	if err != nil {
		t.Fatalf("Privileges: %v", err)
	}
	if priv.ManageTenants {
		t.Error("empty blob decoded to non-zero privileges")
	}
}

func TestUserPrivilegesMalformed(t *testing.T) {
	u := &User{AdminPrivileges: types.JSONText(`{not json`)}
	if _, err := u.Privileges(); err == nil {
		t.Error("expected error for malformed privileges blob")
	}
}

// The sqlite driver returns TEXT columns as string driver values while the
// postgres driver returns []byte; the privileges column type must scan both.
func TestAdminPrivilegesScanDriverValues(t *testing.T) {
	blob := `{"manage_tenants":true}`

	for name, src := range map[string]any{
		"string": blob,
		"bytes":  []byte(blob),
	} {
		t.Run(name, func(t *testing.T) {
			var u User
			if err := u.AdminPrivileges.Scan(src); err != nil {
				t.Fatalf("Scan(%T): %v", src, err)
			}
			priv, err := u.Privileges()
			if err != nil {
				t.Fatalf("Privileges: %v", err)
			}
			if !priv.ManageTenants {
				t.Errorf("privileges = %+v, want manage_tenants", priv)
			}
		})
	}
}

// The health snapshot's JSON shape is consumed by deployment tooling; the
// field names are a compatibility contract.
func TestHealthStatusJSONShape(t *testing.T) {
	status := HealthStatus{
		Connected: true,
		Latency:   2.25,
		PoolStats: PoolStats{TotalCount: 5, IdleCount: 3},
	}

	b, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"connected", "latency", "poolStats"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	pool, ok := raw["poolStats"].(map[string]any)
	if !ok {
		t.Fatalf("poolStats not an object: %s", b)
	}
	for _, key := range []string{"totalCount", "idleCount"} {
		if _, ok := pool[key]; !ok {
			t.Errorf("missing pool key %q in %s", key, b)
		}
	}
}
