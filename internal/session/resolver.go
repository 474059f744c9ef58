// Package session resolves the caller's tenant claims from its external
// identity. Resolution is a single direct lookup keyed by identity id; it is
// deliberately outside the access-control engine it feeds, because scoping
// the profile lookup by tenant would require the very context being resolved.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
)

// ErrNoProfile is returned when the identity has no profile yet. A
// profile-less identity is authenticated but has no access anywhere; callers
// treat this as an empty-access state, not a failure.
var ErrNoProfile = errors.New("session: no profile for identity")

// Context is the resolved claims object for one caller: which school it
// belongs to, with what role, and whether the membership is live. It is
// immutable for the lifetime of a request, so it is resolved once by the
// auth middleware and carried in the request context from there.
type Context struct {
	IdentityID uuid.UUID
	TenantID   uuid.UUID
	Role       domain.Role
	Active     bool
}

type Resolver struct {
	profiles domain.ProfileRepository
}

func NewResolver(profiles domain.ProfileRepository) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve looks up the profile bound to identityID and returns its claims.
// Returns ErrNoProfile when provisioning has not happened (or not happened
// yet); any other error is a storage failure.
func (r *Resolver) Resolve(ctx context.Context, identityID uuid.UUID) (*Context, error) {
	p, err := r.profiles.GetByIdentityID(ctx, identityID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session.Resolve: %w", ErrNoProfile)
	}
	if err != nil {
		return nil, fmt.Errorf("session.Resolve: %w", err)
	}

	return &Context{
		IdentityID: p.IdentityID,
		TenantID:   p.TenantID,
		Role:       p.Role,
		Active:     p.Active,
	}, nil
}
