package location

import "errors"

var (
	// ErrOrganizationNotFound is returned when an organization ID does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrLocationNotFound is returned when a location ID does not exist.
	ErrLocationNotFound = errors.New("location not found")

	// ErrNameRequired is returned when a name field is empty after trimming.
	ErrNameRequired = errors.New("name is required")
)
