// ascrm - multi-location CRM core for field-service businesses.
//
// This is the main entry point for the ascrm API server. It wires the
// credential store, session issuer, membership guard and customer
// repositories onto a single SQLite database and serves the REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/allseasonshq/ascrm-core/migrations"

	"github.com/allseasonshq/ascrm-core/internal/api"
	"github.com/allseasonshq/ascrm-core/internal/audit"
	"github.com/allseasonshq/ascrm-core/internal/auth"
	"github.com/allseasonshq/ascrm-core/internal/customer"
	"github.com/allseasonshq/ascrm-core/internal/infrastructure/config"
	"github.com/allseasonshq/ascrm-core/internal/infrastructure/database"
	"github.com/allseasonshq/ascrm-core/internal/infrastructure/logging"
	"github.com/allseasonshq/ascrm-core/internal/location"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ascrm",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories share the single SQLite connection
	userRepo := auth.NewUserRepository(db.DB)
	membershipRepo := auth.NewMembershipRepository(db.DB)
	guard := auth.NewGuard(membershipRepo)
	locationRepo := location.NewSQLiteRepository(db.DB)
	customerRepo := customer.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Seed a superadmin on an empty install so the first login is possible
	if _, seedErr := auth.SeedAdmin(ctx, userRepo, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding admin user: %w", seedErr)
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:       cfg,
		Logger:       log,
		Users:        userRepo,
		Memberships:  membershipRepo,
		Guard:        guard,
		LocationRepo: locationRepo,
		CustomerRepo: customerRepo,
		AuditRepo:    auditRepo,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify connections are healthy
	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API server, then database

	log.Info("ascrm stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ASCRM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ASCRM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
