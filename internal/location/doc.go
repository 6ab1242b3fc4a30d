// Package location manages the business topology: organizations and
// the locations (branches) they operate. Locations are the unit of
// access control; a user sees a location only through a membership row.
package location
