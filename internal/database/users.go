package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keenhq/keen/internal/model"
)

// GetUserByEmail looks up an account by email. Returns ErrUserNotFound when
// no row matches.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := d.db.Rebind(`SELECT id, tenant_id, email, username, is_admin,
		admin_privileges, is_active, created_at, updated_at
		FROM users WHERE email = ?`)
	if err := d.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// CountUsers reports the number of accounts, total and admin. Used by the
// health surface and tests.
func (d *DB) CountUsers(ctx context.Context) (total, admins int, err error) {
	if err = d.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, 0, fmt.Errorf("count users: %w", err)
	}
	query := d.db.Rebind(`SELECT COUNT(*) FROM users WHERE is_admin = ?`)
	if err = d.db.GetContext(ctx, &admins, query, true); err != nil {
		return 0, 0, fmt.Errorf("count admins: %w", err)
	}
	return total, admins, nil
}
