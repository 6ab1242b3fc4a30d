package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for ascrm.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name    string `yaml:"name"`
	Env     string `yaml:"env"` // "dev" or "prod"; controls the cookie Secure flag
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	Session SessionConfig `yaml:"session"`
}

// SessionConfig contains signed session token settings.
//
// The secret signs every session token issued by this process. It is
// read once at startup and never derived per-request.
type SessionConfig struct {
	Secret               string `yaml:"secret"`
	TTLMinutes           int    `yaml:"ttl_minutes"`
	CookieName           string `yaml:"cookie_name"`
	ActiveLocationCookie string `yaml:"active_location_cookie"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ASCRM_SECTION_KEY
// For example: ASCRM_DATABASE_PATH, ASCRM_SESSION_SECRET
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultSessionTTLMinutes is one week, matching the web UI's "stay signed in" window.
const defaultSessionTTLMinutes = 7 * 24 * 60

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "ascrm",
			Env:     "dev",
			BaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Path:        "./data/ascrm.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Security: SecurityConfig{
			Session: SessionConfig{
				TTLMinutes:           defaultSessionTTLMinutes,
				CookieName:           "ascrm_token",
				ActiveLocationCookie: "active_location_id",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ASCRM_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// App
	if v := os.Getenv("ASCRM_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("ASCRM_BASE_URL"); v != "" {
		cfg.App.BaseURL = v
	}

	// Database
	if v := os.Getenv("ASCRM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("ASCRM_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Security - session secret (IMPORTANT: always override in production)
	if v := os.Getenv("ASCRM_SESSION_SECRET"); v != "" {
		cfg.Security.Session.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security validation - session secret is REQUIRED.
	// An empty or weak secret would let anyone forge session tokens and
	// act as any user, so startup refuses to proceed without one.
	const minSessionSecretLength = 32
	if c.Security.Session.Secret == "" {
		errs = append(errs, "security.session.secret is required (set ASCRM_SESSION_SECRET environment variable)")
	} else if len(c.Security.Session.Secret) < minSessionSecretLength {
		errs = append(errs, "security.session.secret must be at least 32 characters for adequate security")
	}

	if c.Security.Session.TTLMinutes <= 0 {
		errs = append(errs, "security.session.ttl_minutes must be positive")
	}

	if c.Security.Session.CookieName == "" {
		errs = append(errs, "security.session.cookie_name is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SessionTTL returns the session token lifetime as a Duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Security.Session.TTLMinutes) * time.Minute
}

// CookieSecure reports whether session cookies should carry the Secure
// attribute. Anything other than the dev environment is assumed to be
// served over TLS (directly or at the edge).
func (c *Config) CookieSecure() bool {
	return !strings.EqualFold(c.App.Env, "dev")
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
