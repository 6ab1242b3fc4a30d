package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/allseasonshq/ascrm-core/internal/auth"
	"github.com/allseasonshq/ascrm-core/internal/location"
)

// signupRequest is the request body for POST /auth/signup.
type signupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	CompanyName  string `json:"company_name"`
	LocationName string `json:"location_name"`
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is the response body for signup and login. The token
// is also set as a cookie; the body copy serves non-browser clients
// that send it back as a bearer header.
type sessionResponse struct {
	Token     string             `json:"token"`
	TokenType string             `json:"token_type"`
	ExpiresIn int                `json:"expires_in"`
	User      *auth.User         `json:"user"`
	Location  *location.Location `json:"location,omitempty"`
}

// defaultLocationName is used when signup does not name the first branch.
const defaultLocationName = "Main Office"

// handleSignup registers a new account and its business in one step:
// user, organization, first location and an owner membership. The new
// session is issued immediately so the client lands signed in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.CompanyName == "" {
		writeBadRequest(w, "company_name is required")
		return
	}
	if req.LocationName == "" {
		req.LocationName = defaultLocationName
	}

	user, err := auth.CreateUser(r.Context(), s.users, req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			writeConflict(w, "email already registered")
		case errors.Is(err, auth.ErrInvalidEmail):
			writeBadRequest(w, "invalid email address")
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeBadRequest(w, "password must be at least 8 characters")
		default:
			s.logger.Error("signup failed", "error", err)
			writeStoreUnavailable(w)
		}
		return
	}

	org := &location.Organization{Name: req.CompanyName}
	if err := s.locationRepo.CreateOrganization(r.Context(), org); err != nil {
		s.logger.Error("signup organization create failed", "error", err, "user_id", user.ID)
		writeStoreUnavailable(w)
		return
	}

	loc := &location.Location{OrganizationID: org.ID, Name: req.LocationName}
	if err := s.locationRepo.CreateLocation(r.Context(), loc); err != nil {
		s.logger.Error("signup location create failed", "error", err, "user_id", user.ID)
		writeStoreUnavailable(w)
		return
	}

	if err := s.memberships.Grant(r.Context(), user.ID, loc.ID, auth.RoleOwner); err != nil {
		s.logger.Error("signup membership grant failed", "error", err, "user_id", user.ID)
		writeStoreUnavailable(w)
		return
	}

	token, err := auth.IssueSessionToken(user.ID, s.cfg.Security.Session.Secret, s.cfg.SessionTTL())
	if err != nil {
		s.logger.Error("signup token issue failed", "error", err)
		writeInternalError(w, "failed to issue session")
		return
	}

	s.setSessionCookie(w, token)
	s.setActiveLocationCookie(w, loc.ID)

	s.audit("signup", "user", user.ID, user.ID, map[string]any{
		"organization_id": org.ID,
		"location_id":     loc.ID,
	})

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.cfg.SessionTTL().Seconds()),
		User:      user,
		Location:  loc,
	})
}

// handleLogin verifies credentials and issues a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := auth.VerifyCredentials(r.Context(), s.users, req.Email, req.Password)
	if err != nil {
		// One message for every failure mode: no account probing.
		writeUnauthorized(w, "invalid credentials")
		return
	}

	token, err := auth.IssueSessionToken(user.ID, s.cfg.Security.Session.Secret, s.cfg.SessionTTL())
	if err != nil {
		s.logger.Error("login token issue failed", "error", err)
		writeInternalError(w, "failed to issue session")
		return
	}

	s.setSessionCookie(w, token)

	s.audit("login", "user", user.ID, user.ID, nil)

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.cfg.SessionTTL().Seconds()),
		User:      user,
	})
}

// handleLogout clears the session cookies. Tokens are stateless, so a
// copy the client kept stays valid until expiry; logout is a client
// convenience, not a revocation.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user := currentUser(r); user != nil {
		s.audit("logout", "user", user.ID, user.ID, nil)
	}

	s.clearSessionCookie(w)
	s.clearActiveLocationCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "signed out"})
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
