package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestOpen verifies database connection establishment.
func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := Open(Config{
			Path:        dbPath,
			WALMode:     true,
			BusyTimeout: 5,
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

		db, err := Open(Config{
			Path:        dbPath,
			WALMode:     true,
			BusyTimeout: 5,
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		dir := filepath.Dir(dbPath)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Error("database directory was not created")
		}
	})

	t.Run("returns path", func(t *testing.T) {
		db := openTestDB(t)
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() == "" {
			t.Error("Path() should return the database path")
		}
	})
}

// TestHealthCheck verifies the health check functionality.
func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// TestClose verifies graceful shutdown.
func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Second close should not error (nil check)
	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

// TestForeignKeysEnforced verifies the _foreign_keys pragma is applied.
// Membership cascade deletes depend on it.
func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE parents (id TEXT PRIMARY KEY) STRICT;
		CREATE TABLE children (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			FOREIGN KEY (parent_id) REFERENCES parents(id) ON DELETE CASCADE
		) STRICT;
	`)
	if err != nil {
		t.Fatalf("creating test tables: %v", err)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO parents (id) VALUES ('p1')"); err != nil {
		t.Fatalf("inserting parent: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO children (id, parent_id) VALUES ('c1', 'p1')"); err != nil {
		t.Fatalf("inserting child: %v", err)
	}

	// Orphan insert must fail
	if _, err := db.ExecContext(ctx, "INSERT INTO children (id, parent_id) VALUES ('c2', 'missing')"); err == nil {
		t.Error("insert with missing parent should fail when foreign keys are enforced")
	}

	// Cascade delete
	if _, err := db.ExecContext(ctx, "DELETE FROM parents WHERE id = 'p1'"); err != nil {
		t.Fatalf("deleting parent: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM children").Scan(&count); err != nil {
		t.Fatalf("counting children: %v", err)
	}
	if count != 0 {
		t.Errorf("children count after cascade delete = %d, want 0", count)
	}
}

// openTestDB opens a temporary database for testing.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(Config{
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	return db
}
