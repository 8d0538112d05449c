package model

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AdminPrivileges is the structured permissions blob attached to an
// administrator account. It is stored as JSON in the users table.
type AdminPrivileges struct {
	ManageTenants  bool     `json:"manage_tenants"`
	ManageUsers    bool     `json:"manage_users"`
	ManageBilling  bool     `json:"manage_billing"`
	ViewAuditLog   bool     `json:"view_audit_log"`
	AllowedActions []string `json:"allowed_actions,omitempty"`
}

// User is an application account. Exactly one user per deployment is expected
// to carry IsAdmin with a non-empty privileges blob: the account matching the
// configured administrator email.
//
// AdminPrivileges uses types.JSONText rather than json.RawMessage: the
// sqlite driver hands JSON columns back as string driver values, the
// postgres driver as []byte, and JSONText scans both.
type User struct {
	ID              int64          `json:"id" db:"id"`
	TenantID        int64          `json:"tenant_id" db:"tenant_id"`
	Email           string         `json:"email" db:"email"`
	Username        string         `json:"username" db:"username"`
	IsAdmin         bool           `json:"is_admin" db:"is_admin"`
	AdminPrivileges types.JSONText `json:"admin_privileges,omitempty" db:"admin_privileges"`
	IsActive        bool           `json:"is_active" db:"is_active"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// Privileges decodes the admin privileges blob. Returns the zero value for
// users without one.
func (u *User) Privileges() (AdminPrivileges, error) {
	var p AdminPrivileges
	if len(u.AdminPrivileges) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(u.AdminPrivileges, &p); err != nil {
		return p, err
	}
	return p, nil
}
