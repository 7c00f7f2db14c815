package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/haneul-labs/complyhub/internal/models"
)

// Organization methods

// RegisterOrganization creates an organization together with its first admin
// user and seeds one adoption record per catalog control, all in a single
// transaction. If any step fails (including a duplicate email), nothing is
// persisted.
func (db *DB) RegisterOrganization(ctx context.Context, org *models.Organization, admin *models.User) error {
	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO organizations (id, name, profile_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, org.ID, org.Name, string(org.ProfileType), org.CreatedAt, org.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create organization: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, org_id, email, name, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, admin.ID, admin.OrgID, admin.Email, admin.Name, admin.PasswordHash, string(admin.Role), admin.CreatedAt, admin.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}

		// Seed one adoption record per catalog control so category and
		// status aggregates cover the full catalog from day one.
		_, err = tx.Exec(ctx, `
			INSERT INTO organization_controls (id, org_id, control_id, status, is_applicable, notes, created_at, updated_at)
			SELECT gen_random_uuid(), $1, c.id, 'not_started', TRUE, '', NOW(), NOW()
			FROM controls c
		`, org.ID)
		if err != nil {
			return fmt.Errorf("seed organization controls: %w", err)
		}

		return nil
	})
	if err != nil {
		return mapError(err)
	}

	db.logger.Info().
		Str("org_id", org.ID.String()).
		Str("admin_email", admin.Email).
		Msg("organization registered")
	return nil
}

// GetOrganizationByID returns an organization by its ID.
func (db *DB) GetOrganizationByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	var profile string
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, profile_type, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`, id).Scan(&org.ID, &org.Name, &profile, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	org.ProfileType = models.ProfileType(profile)
	return &org, nil
}

// UpdateOrganization persists the organization's mutable fields.
func (db *DB) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE organizations
		SET name = $2, profile_type = $3, updated_at = $4
		WHERE id = $1
	`, org.ID, org.Name, string(org.ProfileType), org.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// User methods

// GetUserByID returns a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return db.scanUser(db.Pool.QueryRow(ctx, `
		SELECT id, org_id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id))
}

// GetUserByEmail returns a user by email. Email is unique across all
// organizations, so this is the login lookup.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.scanUser(db.Pool.QueryRow(ctx, `
		SELECT id, org_id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email))
}

// GetOrgUserByID returns a user by ID scoped to an organization. A user in
// another organization is indistinguishable from a missing one.
func (db *DB) GetOrgUserByID(ctx context.Context, orgID, id uuid.UUID) (*models.User, error) {
	return db.scanUser(db.Pool.QueryRow(ctx, `
		SELECT id, org_id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1 AND org_id = $2
	`, id, orgID))
}

// GetUsersByOrgID returns all users of an organization ordered by creation.
func (db *DB) GetUsersByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.User, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, org_id, email, name, password_hash, role, created_at, updated_at
		FROM users
		WHERE org_id = $1
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := db.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateUser creates a new user.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, org_id, email, name, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.OrgID, user.Email, user.Name, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt)
	return mapError(err)
}

// UpdateUser persists the user's mutable fields.
func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET name = $2, role = $3, updated_at = $4
		WHERE id = $1
	`, user.ID, user.Name, string(user.Role), user.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user scoped to an organization. Tasks assigned to the
// user fall back to unassigned via the schema's ON DELETE SET NULL.
func (db *DB) DeleteUser(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM users WHERE id = $1 AND org_id = $2
	`, id, orgID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var roleStr string
	err := row.Scan(
		&user.ID, &user.OrgID, &user.Email, &user.Name,
		&user.PasswordHash, &roleStr, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	user.Role = models.UserRole(roleStr)
	return &user, nil
}
