package api

import (
	"errors"
	"net/http"

	"github.com/allseasonshq/ascrm-core/internal/auth"
)

// setSessionCookie attaches the session token to the response.
//
// The cookie is HttpOnly (no script access) and SameSite=Lax, matching
// a same-site browser client with top-level navigation. Secure is set
// outside the dev environment.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Security.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Security.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setActiveLocationCookie records the user's selected location. Not
// HttpOnly: the frontend reads it to highlight the active branch.
func (s *Server) setActiveLocationCookie(w http.ResponseWriter, locationID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Security.Session.ActiveLocationCookie,
		Value:    locationID,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL().Seconds()),
		Secure:   s.cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearActiveLocationCookie expires the active-location cookie.
func (s *Server) clearActiveLocationCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Security.Session.ActiveLocationCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.cfg.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}

// activeLocationID resolves the location the request operates on.
//
// The cookie value is honoured only when the user actually holds a
// membership there; a stale or forged cookie falls through to the
// first membership. Users with no memberships get ErrForbidden.
func (s *Server) activeLocationID(r *http.Request, userID string) (string, error) {
	if c, err := r.Cookie(s.cfg.Security.Session.ActiveLocationCookie); err == nil && c.Value != "" {
		if err := s.guard.Authorize(r.Context(), userID, c.Value); err == nil {
			return c.Value, nil
		} else if !errors.Is(err, auth.ErrForbidden) {
			return "", err
		}
	}

	locationIDs, err := s.memberships.LocationIDsForUser(r.Context(), userID)
	if err != nil {
		return "", err
	}
	if len(locationIDs) == 0 {
		return "", auth.ErrForbidden
	}
	return locationIDs[0], nil
}
