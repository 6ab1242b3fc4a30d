package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/allseasonshq/ascrm-core/internal/auth"
	"github.com/allseasonshq/ascrm-core/internal/customer"
	"github.com/allseasonshq/ascrm-core/internal/location"
)

// customerRequest is the request body for creating and updating customers.
type customerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Notes     string `json:"notes"`
}

// archiveRequest is the optional request body for POST /customers/{id}/archive.
// An empty body archives; {"archived": false} restores.
type archiveRequest struct {
	Archived *bool `json:"archived"`
}

// requireActiveLocation resolves the active location and guards it,
// writing the error response on failure. Every customer route goes
// through here so data is always scoped to a location the caller is a
// member of.
func (s *Server) requireActiveLocation(w http.ResponseWriter, r *http.Request, userID string) (string, bool) {
	locationID, err := s.activeLocationID(r, userID)
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			writeForbidden(w)
		} else {
			s.logger.Error("resolving active location failed", "error", err, "user_id", userID)
			writeStoreUnavailable(w)
		}
		return "", false
	}
	return locationID, true
}

// handleListCustomers lists customers in the active location. Supports
// ?q= substring search and ?include_archived=true.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	locationID, ok := s.requireActiveLocation(w, r, user.ID)
	if !ok {
		return
	}

	var customers []customer.Customer
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		customers, err = s.customerRepo.Search(r.Context(), locationID, q)
	} else {
		includeArchived := r.URL.Query().Get("include_archived") == "true"
		customers, err = s.customerRepo.ListByLocation(r.Context(), locationID, includeArchived)
	}
	if err != nil {
		s.logger.Error("listing customers failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customers":   customers,
		"location_id": locationID,
	})
}

// handleCreateCustomer creates a customer in the active location.
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	locationID, ok := s.requireActiveLocation(w, r, user.ID)
	if !ok {
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	loc, err := s.locationRepo.GetLocation(r.Context(), locationID)
	if err != nil {
		if errors.Is(err, location.ErrLocationNotFound) {
			writeNotFound(w, "location not found")
			return
		}
		writeStoreUnavailable(w)
		return
	}

	c := &customer.Customer{
		OrganizationID: loc.OrganizationID,
		LocationID:     locationID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Email:          req.Email,
		Address1:       req.Address1,
		Address2:       req.Address2,
		City:           req.City,
		State:          req.State,
		Zip:            req.Zip,
		Notes:          req.Notes,
	}
	if err := s.customerRepo.Create(r.Context(), c); err != nil {
		if errors.Is(err, customer.ErrNameRequired) {
			writeBadRequest(w, "first_name is required")
			return
		}
		s.logger.Error("creating customer failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	s.audit("customer.create", "customer", c.ID, user.ID, map[string]any{
		"location_id":  locationID,
		"customer_uid": c.CustomerUID,
	})

	writeJSON(w, http.StatusCreated, c)
}

// getAuthorizedCustomer loads a customer and guards the caller against
// the customer's own location, writing the error response on failure.
// The guard runs on the record's location, not the active one, so a
// customer from another branch is denied even with a valid session.
func (s *Server) getAuthorizedCustomer(w http.ResponseWriter, r *http.Request, userID, customerID string) (*customer.Customer, bool) {
	c, err := s.customerRepo.GetByID(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			writeNotFound(w, "customer not found")
			return nil, false
		}
		s.logger.Error("getting customer failed", "error", err, "customer_id", customerID)
		writeStoreUnavailable(w)
		return nil, false
	}

	if !s.authorize(w, r, userID, c.LocationID) {
		return nil, false
	}
	return c, true
}

// handleGetCustomer returns a single customer.
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	c, ok := s.getAuthorizedCustomer(w, r, user.ID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// handleUpdateCustomer modifies a customer's contact fields.
func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	c, ok := s.getAuthorizedCustomer(w, r, user.ID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	c.FirstName = req.FirstName
	c.LastName = req.LastName
	c.Phone = req.Phone
	c.Email = req.Email
	c.Address1 = req.Address1
	c.Address2 = req.Address2
	c.City = req.City
	c.State = req.State
	c.Zip = req.Zip
	c.Notes = req.Notes

	if err := s.customerRepo.Update(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, customer.ErrNameRequired):
			writeBadRequest(w, "first_name is required")
		case errors.Is(err, customer.ErrCustomerNotFound):
			writeNotFound(w, "customer not found")
		default:
			s.logger.Error("updating customer failed", "error", err, "customer_id", c.ID)
			writeStoreUnavailable(w)
		}
		return
	}

	s.audit("customer.update", "customer", c.ID, user.ID, map[string]any{
		"location_id": c.LocationID,
	})

	writeJSON(w, http.StatusOK, c)
}

// handleArchiveCustomer archives (or restores) a customer.
func (s *Server) handleArchiveCustomer(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	c, ok := s.getAuthorizedCustomer(w, r, user.ID, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	archived := true
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Archived != nil {
		archived = *req.Archived
	}

	if err := s.customerRepo.SetArchived(r.Context(), c.ID, archived); err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			writeNotFound(w, "customer not found")
			return
		}
		s.logger.Error("archiving customer failed", "error", err, "customer_id", c.ID)
		writeStoreUnavailable(w)
		return
	}

	action := "customer.archive"
	if !archived {
		action = "customer.restore"
	}
	s.audit(action, "customer", c.ID, user.ID, map[string]any{
		"location_id": c.LocationID,
	})

	c.IsArchived = archived
	writeJSON(w, http.StatusOK, c)
}

// handleDashboard returns headline counts for the active location.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	locationID, ok := s.requireActiveLocation(w, r, user.ID)
	if !ok {
		return
	}

	customerCount, err := s.customerRepo.CountByLocation(r.Context(), locationID)
	if err != nil {
		s.logger.Error("counting customers failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	members, err := s.memberships.ListForLocation(r.Context(), locationID)
	if err != nil {
		s.logger.Error("listing members failed", "error", err, "location_id", locationID)
		writeStoreUnavailable(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"location_id":    locationID,
		"customer_count": customerCount,
		"member_count":   len(members),
	})
}
