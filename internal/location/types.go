package location

import "time"

// Organization is the owning company. Every location belongs to
// exactly one organization, and customer UIDs are numbered per
// organization.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Location is a branch of an organization. All customer data and
// memberships are scoped to a location.
type Location struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Timezone       string    `json:"timezone"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserLocation is a location joined with the membership role the user
// holds there, as served by the my-locations listing.
type UserLocation struct {
	Location
	Role string `json:"role"`
}
