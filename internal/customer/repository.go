package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for customer persistence operations.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	ListByLocation(ctx context.Context, locationID string, includeArchived bool) ([]Customer, error)
	Search(ctx context.Context, locationID, query string) ([]Customer, error)
	Update(ctx context.Context, c *Customer) error
	SetArchived(ctx context.Context, id string, archived bool) error
	CountByLocation(ctx context.Context, locationID string) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed customer repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const customerColumns = `id, customer_uid, organization_id, location_id,
	first_name, last_name, phone, email, address1, address2, city, state, zip,
	notes, is_archived, created_at, updated_at`

// Create inserts a new customer. The ID is generated if empty and the
// human-facing UID is allocated from the organization's counter in the
// same transaction as the insert.
func (r *SQLiteRepository) Create(ctx context.Context, c *Customer) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	if c.FirstName == "" {
		return ErrNameRequired
	}
	if c.ID == "" {
		c.ID = "cus-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	c.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	c.UpdatedAt = c.CreatedAt

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	uid, err := nextCustomerUID(ctx, tx, c.OrganizationID)
	if err != nil {
		return err
	}
	c.CustomerUID = uid

	_, err = tx.ExecContext(ctx,
		`INSERT INTO customers (id, customer_uid, organization_id, location_id,
		   first_name, last_name, phone, email, address1, address2, city, state, zip,
		   notes, is_archived, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		c.ID, c.CustomerUID, c.OrganizationID, c.LocationID,
		c.FirstName, c.LastName, nullString(c.Phone), nullString(c.Email),
		nullString(c.Address1), nullString(c.Address2), nullString(c.City),
		nullString(c.State), nullString(c.Zip), nullString(c.Notes), now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting customer %s: %w", c.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing customer: %w", err)
	}
	return nil
}

// GetByID returns a single customer by internal ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = ?", id)
	return scanCustomerFrom(row)
}

// ListByLocation returns customers for a location ordered by last then
// first name. Archived customers are excluded unless includeArchived is set.
func (r *SQLiteRepository) ListByLocation(ctx context.Context, locationID string, includeArchived bool) ([]Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE location_id = ?"
	if !includeArchived {
		query += " AND is_archived = 0"
	}
	query += " ORDER BY last_name, first_name"

	return r.queryCustomers(ctx, query, locationID)
}

// Search returns non-archived customers in a location whose name,
// phone, email or UID contains the query string (case-insensitive).
func (r *SQLiteRepository) Search(ctx context.Context, locationID, query string) ([]Customer, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	return r.queryCustomers(ctx,
		"SELECT "+customerColumns+` FROM customers
		 WHERE location_id = ? AND is_archived = 0
		   AND (first_name LIKE ? OR last_name LIKE ? OR phone LIKE ? OR email LIKE ? OR customer_uid LIKE ?)
		 ORDER BY last_name, first_name`,
		locationID, pattern, pattern, pattern, pattern, pattern)
}

// Update modifies a customer's contact fields. Identity, scoping and
// the UID are immutable.
func (r *SQLiteRepository) Update(ctx context.Context, c *Customer) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	if c.FirstName == "" {
		return ErrNameRequired
	}

	now := time.Now().UTC().Format(time.RFC3339)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET first_name = ?, last_name = ?, phone = ?, email = ?,
		   address1 = ?, address2 = ?, city = ?, state = ?, zip = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		c.FirstName, c.LastName, nullString(c.Phone), nullString(c.Email),
		nullString(c.Address1), nullString(c.Address2), nullString(c.City),
		nullString(c.State), nullString(c.Zip), nullString(c.Notes), now, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating customer %s: %w", c.ID, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// SetArchived flips the archive flag. Archiving is the only removal
// path; rows are never deleted.
func (r *SQLiteRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"UPDATE customers SET is_archived = ?, updated_at = ? WHERE id = ?",
		boolToInt(archived), now, id,
	)
	if err != nil {
		return fmt.Errorf("archiving customer %s: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// CountByLocation returns the number of non-archived customers in a location.
func (r *SQLiteRepository) CountByLocation(ctx context.Context, locationID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers WHERE location_id = ? AND is_archived = 0",
		locationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting customers: %w", err)
	}
	return count, nil
}

// queryCustomers executes a query and returns a slice of Customer.
func (r *SQLiteRepository) queryCustomers(ctx context.Context, query string, args ...any) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomerFrom(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customer rows: %w", err)
	}

	if customers == nil {
		customers = []Customer{}
	}
	return customers, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanCustomerFrom scans a customer from any scanner (Row or Rows).
func scanCustomerFrom(s scanner) (*Customer, error) {
	var c Customer
	var phone, email, addr1, addr2, city, state, zip, notes sql.NullString
	var isArchived int
	var createdAt, updatedAt string

	err := s.Scan(&c.ID, &c.CustomerUID, &c.OrganizationID, &c.LocationID,
		&c.FirstName, &c.LastName, &phone, &email, &addr1, &addr2, &city,
		&state, &zip, &notes, &isArchived, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("scanning customer: %w", err)
	}

	c.Phone = phone.String
	c.Email = email.String
	c.Address1 = addr1.String
	c.Address2 = addr2.String
	c.City = city.String
	c.State = state.String
	c.Zip = zip.String
	c.Notes = notes.String
	c.IsArchived = isArchived != 0

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &c, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
