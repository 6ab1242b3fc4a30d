package location

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for organization and location
// persistence operations.
type Repository interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	GetOrganization(ctx context.Context, id string) (*Organization, error)

	CreateLocation(ctx context.Context, loc *Location) error
	GetLocation(ctx context.Context, id string) (*Location, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Location, error)
	ListForUser(ctx context.Context, userID string) ([]UserLocation, error)
	UpdateLocation(ctx context.Context, loc *Location) error
	DeleteLocation(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed location repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateOrganization inserts a new organization. The ID is generated if empty.
func (r *SQLiteRepository) CreateOrganization(ctx context.Context, org *Organization) error {
	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" {
		return ErrNameRequired
	}
	if org.ID == "" {
		org.ID = "org-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	org.CreatedAt = parseTime(now)

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)",
		org.ID, org.Name, now,
	)
	if err != nil {
		return fmt.Errorf("inserting organization %s: %w", org.ID, err)
	}
	return nil
}

// GetOrganization returns a single organization by ID.
func (r *SQLiteRepository) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM organizations WHERE id = ?", id,
	).Scan(&org.ID, &org.Name, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("scanning organization: %w", err)
	}

	org.CreatedAt = parseTime(createdAt)
	return &org, nil
}

// CreateLocation inserts a new location. The ID is generated if empty
// and the timezone defaults to UTC.
func (r *SQLiteRepository) CreateLocation(ctx context.Context, loc *Location) error {
	loc.Name = strings.TrimSpace(loc.Name)
	if loc.Name == "" {
		return ErrNameRequired
	}
	if loc.ID == "" {
		loc.ID = "loc-" + uuid.NewString()[:8]
	}
	if loc.Timezone == "" {
		loc.Timezone = "UTC"
	}

	now := time.Now().UTC().Format(time.RFC3339)
	loc.CreatedAt = parseTime(now)

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO locations (id, organization_id, name, timezone, created_at) VALUES (?, ?, ?, ?, ?)",
		loc.ID, loc.OrganizationID, loc.Name, loc.Timezone, now,
	)
	if err != nil {
		return fmt.Errorf("inserting location %s: %w", loc.ID, err)
	}
	return nil
}

// GetLocation returns a single location by ID.
func (r *SQLiteRepository) GetLocation(ctx context.Context, id string) (*Location, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, organization_id, name, timezone, created_at FROM locations WHERE id = ?", id)

	var loc Location
	var createdAt string
	if err := row.Scan(&loc.ID, &loc.OrganizationID, &loc.Name, &loc.Timezone, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("scanning location: %w", err)
	}

	loc.CreatedAt = parseTime(createdAt)
	return &loc, nil
}

// ListByOrganization returns all locations for an organization ordered by name.
func (r *SQLiteRepository) ListByOrganization(ctx context.Context, orgID string) ([]Location, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, organization_id, name, timezone, created_at FROM locations WHERE organization_id = ? ORDER BY name", orgID)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		var createdAt string
		if err := rows.Scan(&loc.ID, &loc.OrganizationID, &loc.Name, &loc.Timezone, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning location row: %w", err)
		}
		loc.CreatedAt = parseTime(createdAt)
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating location rows: %w", err)
	}

	if locations == nil {
		locations = []Location{}
	}
	return locations, nil
}

// ListForUser returns the locations a user is a member of, joined with
// the membership role, ordered by location name.
func (r *SQLiteRepository) ListForUser(ctx context.Context, userID string) ([]UserLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.organization_id, l.name, l.timezone, l.created_at, m.role
		 FROM locations l
		 JOIN memberships m ON m.location_id = l.id
		 WHERE m.user_id = ?
		 ORDER BY l.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user locations: %w", err)
	}
	defer rows.Close()

	var locations []UserLocation
	for rows.Next() {
		var ul UserLocation
		var createdAt string
		if err := rows.Scan(&ul.ID, &ul.OrganizationID, &ul.Name, &ul.Timezone, &createdAt, &ul.Role); err != nil {
			return nil, fmt.Errorf("scanning user location row: %w", err)
		}
		ul.CreatedAt = parseTime(createdAt)
		locations = append(locations, ul)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user location rows: %w", err)
	}

	if locations == nil {
		locations = []UserLocation{}
	}
	return locations, nil
}

// UpdateLocation modifies a location's name and timezone.
func (r *SQLiteRepository) UpdateLocation(ctx context.Context, loc *Location) error {
	loc.Name = strings.TrimSpace(loc.Name)
	if loc.Name == "" {
		return ErrNameRequired
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE locations SET name = ?, timezone = ? WHERE id = ?",
		loc.Name, loc.Timezone, loc.ID,
	)
	if err != nil {
		return fmt.Errorf("updating location %s: %w", loc.ID, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// DeleteLocation removes a location. Memberships and customers cascade.
func (r *SQLiteRepository) DeleteLocation(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting location %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // format is controlled
	return t
}
