package customer

import (
	"errors"
	"time"
)

// Customer is a customer record belonging to one location of one
// organization.
type Customer struct {
	ID             string    `json:"id"`
	CustomerUID    string    `json:"customer_uid"`
	OrganizationID string    `json:"organization_id"`
	LocationID     string    `json:"location_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	Address1       string    `json:"address1,omitempty"`
	Address2       string    `json:"address2,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Zip            string    `json:"zip,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	IsArchived     bool      `json:"is_archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Sentinel errors for customer operations.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrNameRequired     = errors.New("first name is required")
)
