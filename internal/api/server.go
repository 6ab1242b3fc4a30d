// Package api provides the HTTP REST API server for ascrm.
//
// It exposes account, session, location, membership and customer
// operations to browser and mobile clients. Sessions travel as an
// HttpOnly cookie with an Authorization bearer fallback; every
// location-scoped route passes through the membership guard before
// touching data.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/allseasonshq/ascrm-core/internal/audit"
	"github.com/allseasonshq/ascrm-core/internal/auth"
	"github.com/allseasonshq/ascrm-core/internal/customer"
	"github.com/allseasonshq/ascrm-core/internal/infrastructure/config"
	"github.com/allseasonshq/ascrm-core/internal/infrastructure/logging"
	"github.com/allseasonshq/ascrm-core/internal/location"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// auditChanSize is the buffer size for the async audit channel.
// Entries beyond this are dropped (best-effort) to avoid back-pressure on requests.
const auditChanSize = 256

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       *config.Config
	Logger       *logging.Logger
	Users        auth.UserRepository
	Memberships  auth.MembershipRepository
	Guard        *auth.Guard
	LocationRepo location.Repository
	CustomerRepo customer.Repository
	AuditRepo    audit.Repository // optional: nil disables the audit trail
	Version      string
}

// Server is the HTTP API server for ascrm.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg          *config.Config
	logger       *logging.Logger
	users        auth.UserRepository
	memberships  auth.MembershipRepository
	guard        *auth.Guard
	locationRepo location.Repository
	customerRepo customer.Repository
	auditRepo    audit.Repository
	version      string
	server       *http.Server
	auditCh      chan *audit.Entry
	cancel       context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Memberships == nil {
		return nil, fmt.Errorf("membership repository is required")
	}
	if deps.Guard == nil {
		return nil, fmt.Errorf("access guard is required")
	}
	if deps.LocationRepo == nil {
		return nil, fmt.Errorf("location repository is required")
	}
	if deps.CustomerRepo == nil {
		return nil, fmt.Errorf("customer repository is required")
	}
	// Audit repo is optional: without it actions go unrecorded

	s := &Server{
		cfg:          deps.Config,
		logger:       deps.Logger,
		users:        deps.Users,
		memberships:  deps.Memberships,
		guard:        deps.Guard,
		locationRepo: deps.LocationRepo,
		customerRepo: deps.CustomerRepo,
		auditRepo:    deps.AuditRepo,
		version:      deps.Version,
	}

	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.Entry, auditChanSize)
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the audit drain goroutine, and launches
// the HTTP listener in a background goroutine. The server can be
// stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		go s.drainAudit(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.API.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.API.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.API.TLS.CertFile, s.cfg.API.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (audit drain)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
