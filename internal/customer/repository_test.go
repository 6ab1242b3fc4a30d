package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the customer schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "customer-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE organizations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE locations (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE customers (
			id TEXT PRIMARY KEY,
			customer_uid TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			location_id TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL DEFAULT '',
			phone TEXT,
			email TEXT,
			address1 TEXT,
			address2 TEXT,
			city TEXT,
			state TEXT,
			zip TEXT,
			notes TEXT,
			is_archived INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE,
			FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
		) STRICT;

		CREATE UNIQUE INDEX idx_customers_org_uid ON customers(organization_id, customer_uid);

		CREATE TABLE customer_counters (
			organization_id TEXT PRIMARY KEY,
			next_num INTEGER NOT NULL DEFAULT 1,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE
		) STRICT;

		INSERT INTO organizations (id, name) VALUES ('org-a', 'Org A');
		INSERT INTO organizations (id, name) VALUES ('org-b', 'Org B');
		INSERT INTO locations (id, organization_id, name) VALUES ('loc-a1', 'org-a', 'A1');
		INSERT INTO locations (id, organization_id, name) VALUES ('loc-a2', 'org-a', 'A2');
		INSERT INTO locations (id, organization_id, name) VALUES ('loc-b1', 'org-b', 'B1');
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

func seedCustomer(t *testing.T, repo *SQLiteRepository, orgID, locationID, firstName string) *Customer {
	t.Helper()

	c := &Customer{
		OrganizationID: orgID,
		LocationID:     locationID,
		FirstName:      firstName,
		LastName:       "Test",
	}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("creating customer %s: %v", firstName, err)
	}
	return c
}

func TestCreate_AllocatesSequentialUIDs(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	for i := 1; i <= 3; i++ {
		c := seedCustomer(t, repo, "org-a", "loc-a1", fmt.Sprintf("Customer%d", i))

		want := fmt.Sprintf("CUS-%06d", i)
		if c.CustomerUID != want {
			t.Errorf("customer %d UID = %q, want %q", i, c.CustomerUID, want)
		}
		if !strings.HasPrefix(c.ID, "cus-") {
			t.Errorf("generated ID should have cus- prefix, got %q", c.ID)
		}
	}
}

func TestCreate_CountersPerOrganization(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	a := seedCustomer(t, repo, "org-a", "loc-a1", "Alice")
	b := seedCustomer(t, repo, "org-b", "loc-b1", "Bob")

	// Counters are independent: both organizations start at 1
	if a.CustomerUID != "CUS-000001" {
		t.Errorf("org-a first UID = %q, want CUS-000001", a.CustomerUID)
	}
	if b.CustomerUID != "CUS-000001" {
		t.Errorf("org-b first UID = %q, want CUS-000001", b.CustomerUID)
	}

	// UIDs span locations within an organization
	a2 := seedCustomer(t, repo, "org-a", "loc-a2", "Aaron")
	if a2.CustomerUID != "CUS-000002" {
		t.Errorf("org-a second UID = %q, want CUS-000002", a2.CustomerUID)
	}
}

func TestCreate_EmptyFirstName(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.Create(context.Background(), &Customer{
		OrganizationID: "org-a",
		LocationID:     "loc-a1",
		FirstName:      "   ",
	})
	if !errors.Is(err, ErrNameRequired) {
		t.Errorf("error = %v, want ErrNameRequired", err)
	}
}

func TestGetByID(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	created := &Customer{
		OrganizationID: "org-a",
		LocationID:     "loc-a1",
		FirstName:      "Dana",
		LastName:       "Fields",
		Phone:          "555-0100",
		Email:          "dana@example.com",
		Address1:       "12 Elm St",
		City:           "Springfield",
		State:          "IL",
		Zip:            "62701",
		Notes:          "gate code 4417",
	}
	if err := repo.Create(context.Background(), created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FirstName != "Dana" || got.Phone != "555-0100" || got.Notes != "gate code 4417" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.IsArchived {
		t.Error("new customer should not be archived")
	}

	if _, err := repo.GetByID(context.Background(), "cus-missing"); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("GetByID() missing error = %v, want ErrCustomerNotFound", err)
	}
}

func TestListByLocation(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	seedCustomer(t, repo, "org-a", "loc-a1", "Zoe")
	seedCustomer(t, repo, "org-a", "loc-a1", "Adam")
	seedCustomer(t, repo, "org-a", "loc-a2", "Elsewhere")

	customers, err := repo.ListByLocation(context.Background(), "loc-a1", false)
	if err != nil {
		t.Fatalf("ListByLocation() error = %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(customers))
	}
	// Ordered by last then first name
	if customers[0].FirstName != "Adam" {
		t.Errorf("first customer = %q, want Adam", customers[0].FirstName)
	}
}

func TestListByLocation_ArchivedFilter(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	active := seedCustomer(t, repo, "org-a", "loc-a1", "Active")
	archived := seedCustomer(t, repo, "org-a", "loc-a1", "Archived")
	if err := repo.SetArchived(context.Background(), archived.ID, true); err != nil {
		t.Fatalf("SetArchived() error = %v", err)
	}

	customers, err := repo.ListByLocation(context.Background(), "loc-a1", false)
	if err != nil {
		t.Fatalf("ListByLocation() error = %v", err)
	}
	if len(customers) != 1 || customers[0].ID != active.ID {
		t.Errorf("default listing should exclude archived, got %d", len(customers))
	}

	customers, err = repo.ListByLocation(context.Background(), "loc-a1", true)
	if err != nil {
		t.Fatalf("ListByLocation(includeArchived) error = %v", err)
	}
	if len(customers) != 2 {
		t.Errorf("includeArchived listing should return 2, got %d", len(customers))
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	dana := &Customer{
		OrganizationID: "org-a", LocationID: "loc-a1",
		FirstName: "Dana", LastName: "Fields",
		Phone: "555-0100", Email: "dana@example.com",
	}
	if err := repo.Create(context.Background(), dana); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	seedCustomer(t, repo, "org-a", "loc-a1", "Unrelated")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"by first name", "dana", 1},
		{"by last name", "field", 1},
		{"by phone", "555-01", 1},
		{"by email", "dana@", 1},
		{"by uid", dana.CustomerUID, 1},
		{"no match", "nobody", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(context.Background(), "loc-a1", tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) = %d results, want %d", tt.query, len(got), tt.want)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	c := seedCustomer(t, repo, "org-a", "loc-a1", "Original")
	originalUID := c.CustomerUID

	c.FirstName = "Updated"
	c.Phone = "555-0199"
	if err := repo.Update(context.Background(), c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FirstName != "Updated" || got.Phone != "555-0199" {
		t.Errorf("GetByID() after update = %+v", got)
	}
	if got.CustomerUID != originalUID {
		t.Errorf("UID changed on update: %q -> %q", originalUID, got.CustomerUID)
	}

	if err := repo.Update(context.Background(), &Customer{ID: "cus-missing", FirstName: "x"}); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("Update() missing error = %v, want ErrCustomerNotFound", err)
	}
}

func TestSetArchived(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	c := seedCustomer(t, repo, "org-a", "loc-a1", "Archie")

	if err := repo.SetArchived(context.Background(), c.ID, true); err != nil {
		t.Fatalf("SetArchived(true) error = %v", err)
	}
	got, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.IsArchived {
		t.Error("customer should be archived")
	}

	// Unarchive restores visibility
	if err := repo.SetArchived(context.Background(), c.ID, false); err != nil {
		t.Fatalf("SetArchived(false) error = %v", err)
	}
	got, err = repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.IsArchived {
		t.Error("customer should be unarchived")
	}

	if err := repo.SetArchived(context.Background(), "cus-missing", true); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("SetArchived() missing error = %v, want ErrCustomerNotFound", err)
	}
}

func TestCountByLocation(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	count, err := repo.CountByLocation(context.Background(), "loc-a1")
	if err != nil {
		t.Fatalf("CountByLocation() error = %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	seedCustomer(t, repo, "org-a", "loc-a1", "One")
	archived := seedCustomer(t, repo, "org-a", "loc-a1", "Two")
	if err := repo.SetArchived(context.Background(), archived.ID, true); err != nil {
		t.Fatalf("SetArchived() error = %v", err)
	}

	count, err = repo.CountByLocation(context.Background(), "loc-a1")
	if err != nil {
		t.Fatalf("CountByLocation() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (archived excluded)", count)
	}
}
