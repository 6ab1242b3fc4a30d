package auth

import (
	"context"
	"fmt"
)

// Guard decides whether a user may act on a location.
//
// The rule is binary: access is granted iff a membership row exists for
// the exact (user, location) pair. The membership role is never
// consulted and there is no hierarchy between locations.
type Guard struct {
	memberships MembershipRepository
}

// NewGuard creates a Guard over a membership repository.
func NewGuard(memberships MembershipRepository) *Guard {
	return &Guard{memberships: memberships}
}

// Authorize returns nil if the user holds a membership for the
// location, ErrForbidden otherwise. The denial does not reveal whether
// the location exists.
func (g *Guard) Authorize(ctx context.Context, userID, locationID string) error {
	if userID == "" || locationID == "" {
		return ErrForbidden
	}

	ok, err := g.memberships.Has(ctx, userID, locationID)
	if err != nil {
		return fmt.Errorf("authorizing access: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
