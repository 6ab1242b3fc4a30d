package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// emailPattern is a pragmatic format check: one @, no spaces, a dot in
// the domain part. Deliverability is not verified.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// maxEmailLength is the maximum allowed email length.
const maxEmailLength = 254

// NormalizeEmail lower-cases and trims an email address. All storage
// and lookup goes through this so duplicate detection is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail checks if an email meets format requirements.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// Membership roles. Informational only: authorisation is decided by
// membership existence, never by role.
const (
	RoleTech       = "tech"
	RoleDispatcher = "dispatcher"
	RoleManager    = "manager"
	RoleOwner      = "owner"
)

// ValidRoles is the set of accepted membership role labels.
var ValidRoles = []string{RoleTech, RoleDispatcher, RoleManager, RoleOwner}

// IsValidRole returns true if the role is an accepted membership label.
func IsValidRole(role string) bool {
	for _, v := range ValidRoles {
		if role == v {
			return true
		}
	}
	return false
}

// User represents an authenticated account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"` // never serialised
	IsActive     bool      `json:"is_active"`
	IsSuperadmin bool      `json:"is_superadmin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Membership links a user to a location they may act on.
type Membership struct {
	UserID     string    `json:"user_id"`
	LocationID string    `json:"location_id"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrSessionExpired     = errors.New("session has expired")
	ErrSessionInvalid     = errors.New("invalid session token")
	ErrForbidden          = errors.New("no access to this location")
	ErrMembershipNotFound = errors.New("membership not found")
)
