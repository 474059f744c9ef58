package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Invitation is a single-use, time-boxed grant of future tenant membership.
// At most one unaccepted, unexpired invitation may exist per (tenant, email);
// the storage layer enforces this with a partial unique index rather than
// application-level locking.
type Invitation struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Email      string
	Role       Role
	InvitedBy  uuid.UUID
	Token      string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// Pending reports whether the invitation can still be consumed at now.
func (i *Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

type InvitationRepository interface {
	// Create inserts the invitation. A pending invitation for the same
	// (tenant, email) surfaces as ErrConflict via the unique index.
	Create(ctx context.Context, inv *Invitation) error

	// GetByToken returns the invitation whatever its state; callers decide
	// between not-found, expired and already-accepted.
	GetByToken(ctx context.Context, token string) (*Invitation, error)

	ListPending(ctx context.Context, tenantID uuid.UUID) ([]*Invitation, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// AcceptAndCreateProfile marks the invitation accepted and inserts the
	// profile in one transaction. The accept is a conditional update guarded
	// by "accepted_at IS NULL"; of two concurrent attempts exactly one wins
	// and the loser gets ErrInvitationAlreadyAccepted.
	AcceptAndCreateProfile(ctx context.Context, invitationID uuid.UUID, p *Profile) error

	// PurgeExpired deletes unaccepted invitations whose expiry is older than
	// before. Returns the number of rows removed.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
