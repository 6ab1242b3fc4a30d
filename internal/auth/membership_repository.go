package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MembershipRepository defines the interface for location membership
// persistence. A membership row is the sole authorisation primitive:
// existence grants access, absence denies it.
type MembershipRepository interface {
	Grant(ctx context.Context, userID, locationID, role string) error
	Revoke(ctx context.Context, userID, locationID string) error
	Has(ctx context.Context, userID, locationID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]Membership, error)
	ListForLocation(ctx context.Context, locationID string) ([]Membership, error)
	LocationIDsForUser(ctx context.Context, userID string) ([]string, error)
}

// SQLiteMembershipRepository implements MembershipRepository using SQLite.
type SQLiteMembershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new SQLite-backed membership repository.
func NewMembershipRepository(db *sql.DB) *SQLiteMembershipRepository {
	return &SQLiteMembershipRepository{db: db}
}

// Grant adds a membership for the (user, location) pair. Granting an
// existing pair is idempotent: the role is updated in place and no
// error is returned. An empty role defaults to tech.
func (r *SQLiteMembershipRepository) Grant(ctx context.Context, userID, locationID, role string) error {
	if role == "" {
		role = RoleTech
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (user_id, location_id, role)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, location_id) DO UPDATE SET role = excluded.role`,
		userID, locationID, role,
	)
	if err != nil {
		return fmt.Errorf("granting membership: %w", err)
	}
	return nil
}

// Revoke removes the membership for the (user, location) pair.
// Revoking a non-existent pair fails with ErrMembershipNotFound.
func (r *SQLiteMembershipRepository) Revoke(ctx context.Context, userID, locationID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM memberships WHERE user_id = ? AND location_id = ?",
		userID, locationID,
	)
	if err != nil {
		return fmt.Errorf("revoking membership: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// Has reports whether a membership exists for the (user, location) pair.
func (r *SQLiteMembershipRepository) Has(ctx context.Context, userID, locationID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM memberships WHERE user_id = ? AND location_id = ?",
		userID, locationID,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return true, nil
}

// ListForUser returns all memberships for a user ordered by location ID.
func (r *SQLiteMembershipRepository) ListForUser(ctx context.Context, userID string) ([]Membership, error) {
	return r.list(ctx,
		`SELECT user_id, location_id, role, created_at
		 FROM memberships WHERE user_id = ? ORDER BY location_id`, userID)
}

// ListForLocation returns all memberships for a location ordered by user ID.
func (r *SQLiteMembershipRepository) ListForLocation(ctx context.Context, locationID string) ([]Membership, error) {
	return r.list(ctx,
		`SELECT user_id, location_id, role, created_at
		 FROM memberships WHERE location_id = ? ORDER BY user_id`, locationID)
}

// LocationIDsForUser returns just the location IDs a user belongs to.
func (r *SQLiteMembershipRepository) LocationIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT location_id FROM memberships WHERE user_id = ? ORDER BY location_id", userID)
	if err != nil {
		return nil, fmt.Errorf("getting membership locations: %w", err)
	}
	defer rows.Close()

	var locationIDs []string
	for rows.Next() {
		var locationID string
		if err := rows.Scan(&locationID); err != nil {
			return nil, fmt.Errorf("scanning location ID: %w", err)
		}
		locationIDs = append(locationIDs, locationID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating location IDs: %w", err)
	}

	if locationIDs == nil {
		locationIDs = []string{}
	}
	return locationIDs, nil
}

// list executes a membership query and scans all rows.
func (r *SQLiteMembershipRepository) list(ctx context.Context, query string, args ...any) ([]Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var m Membership
		var createdAt string

		if err := rows.Scan(&m.UserID, &m.LocationID, &m.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}

		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memberships: %w", err)
	}

	if memberships == nil {
		memberships = []Membership{}
	}
	return memberships, nil
}
