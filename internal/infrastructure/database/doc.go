// Package database provides SQLite database connectivity for ascrm.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations from embedded .up.sql/.down.sql files
//   - Connection pooling and lifecycle management
//   - STRICT mode tables with foreign keys enforced
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
