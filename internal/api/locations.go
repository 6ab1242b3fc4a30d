package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/allseasonshq/ascrm-core/internal/auth"
	"github.com/allseasonshq/ascrm-core/internal/location"
)

// myLocationsResponse is the response body for GET /locations/my.
type myLocationsResponse struct {
	Locations        []location.UserLocation `json:"locations"`
	ActiveLocationID string                  `json:"active_location_id,omitempty"`
}

// createLocationRequest is the request body for POST /locations.
type createLocationRequest struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Timezone       string `json:"timezone"`
}

// memberRequest is the request body for PUT /locations/{id}/members/{userID}.
type memberRequest struct {
	Role string `json:"role"`
}

// handleMyLocations lists the locations the caller belongs to, plus the
// resolved active location.
func (s *Server) handleMyLocations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	locations, err := s.locationRepo.ListForUser(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("listing user locations failed", "error", err, "user_id", user.ID)
		writeStoreUnavailable(w)
		return
	}

	resp := myLocationsResponse{Locations: locations}
	if active, err := s.activeLocationID(r, user.ID); err == nil {
		resp.ActiveLocationID = active
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCreateLocation adds a branch to an organization. The caller
// must already be a member somewhere in that organization (or be a
// superadmin) and becomes an owner of the new branch.
func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.OrganizationID == "" {
		writeBadRequest(w, "organization_id is required")
		return
	}

	if !user.IsSuperadmin {
		member, err := s.isOrgMember(r, user.ID, req.OrganizationID)
		if err != nil {
			writeStoreUnavailable(w)
			return
		}
		if !member {
			writeForbidden(w)
			return
		}
	}

	loc := &location.Location{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Timezone:       req.Timezone,
	}
	if err := s.locationRepo.CreateLocation(r.Context(), loc); err != nil {
		if errors.Is(err, location.ErrNameRequired) {
			writeBadRequest(w, "name is required")
			return
		}
		s.logger.Error("creating location failed", "error", err)
		writeStoreUnavailable(w)
		return
	}

	if err := s.memberships.Grant(r.Context(), user.ID, loc.ID, auth.RoleOwner); err != nil {
		s.logger.Error("granting creator membership failed", "error", err, "location_id", loc.ID)
		writeStoreUnavailable(w)
		return
	}

	s.audit("location.create", "location", loc.ID, user.ID, map[string]any{
		"organization_id": loc.OrganizationID,
		"name":            loc.Name,
	})

	writeJSON(w, http.StatusCreated, loc)
}

// handleGetLocation returns a location the caller is a member of.
func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	locationID := chi.URLParam(r, "id")

	if !s.authorize(w, r, user.ID, locationID) {
		return
	}

	loc, err := s.locationRepo.GetLocation(r.Context(), locationID)
	if err != nil {
		if errors.Is(err, location.ErrLocationNotFound) {
			writeNotFound(w, "location not found")
			return
		}
		s.logger.Error("getting location failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

// handleGrantMember grants a user membership of a location. The caller
// must be a member of the location themselves.
func (s *Server) handleGrantMember(w http.ResponseWriter, r *http.Request) {
	caller := currentUser(r)
	locationID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	if !s.authorize(w, r, caller.ID, locationID) {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Role != "" && !auth.IsValidRole(req.Role) {
		writeBadRequest(w, "invalid role")
		return
	}

	// The target user must exist: a membership row for a ghost ID would
	// silently grant access if the ID is ever reused.
	if _, err := s.users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		writeStoreUnavailable(w)
		return
	}

	if err := s.memberships.Grant(r.Context(), userID, locationID, req.Role); err != nil {
		s.logger.Error("granting membership failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	s.audit("membership.grant", "membership", userID, caller.ID, map[string]any{
		"location_id": locationID,
		"role":        req.Role,
	})

	writeJSON(w, http.StatusOK, map[string]any{"status": "granted"})
}

// handleRevokeMember removes a user's membership of a location.
func (s *Server) handleRevokeMember(w http.ResponseWriter, r *http.Request) {
	caller := currentUser(r)
	locationID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")

	if !s.authorize(w, r, caller.ID, locationID) {
		return
	}

	if err := s.memberships.Revoke(r.Context(), userID, locationID); err != nil {
		if errors.Is(err, auth.ErrMembershipNotFound) {
			writeNotFound(w, "membership not found")
			return
		}
		s.logger.Error("revoking membership failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	s.audit("membership.revoke", "membership", userID, caller.ID, map[string]any{
		"location_id": locationID,
	})

	writeJSON(w, http.StatusOK, map[string]any{"status": "revoked"})
}

// handleListMembers lists the memberships of a location.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	caller := currentUser(r)
	locationID := chi.URLParam(r, "id")

	if !s.authorize(w, r, caller.ID, locationID) {
		return
	}

	members, err := s.memberships.ListForLocation(r.Context(), locationID)
	if err != nil {
		s.logger.Error("listing members failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

// handleSelectLocation sets the caller's active location cookie.
func (s *Server) handleSelectLocation(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	locationID := chi.URLParam(r, "id")

	if !s.authorize(w, r, user.ID, locationID) {
		return
	}

	s.setActiveLocationCookie(w, locationID)
	writeJSON(w, http.StatusOK, map[string]any{"active_location_id": locationID})
}

// authorize runs the membership guard and writes the error response on
// denial. Returns true when the request may proceed.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, userID, locationID string) bool {
	if err := s.guard.Authorize(r.Context(), userID, locationID); err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			writeForbidden(w)
		} else {
			s.logger.Error("authorization check failed", "error", err, "location_id", locationID)
			writeStoreUnavailable(w)
		}
		return false
	}
	return true
}

// isOrgMember reports whether the user belongs to any location of the
// organization.
func (s *Server) isOrgMember(r *http.Request, userID, orgID string) (bool, error) {
	locations, err := s.locationRepo.ListForUser(r.Context(), userID)
	if err != nil {
		return false, err
	}
	for _, loc := range locations {
		if loc.OrganizationID == orgID {
			return true, nil
		}
	}
	return false, nil
}
