// Package invite is the registry of pending tenant-membership grants: issue,
// look up, revoke and purge invitations. Acceptance itself happens in the
// provisioning flow, atomically with profile creation.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/classdesk/classdesk/internal/access"
	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/session"
)

const (
	tokenPrefix  = "cdinv_"
	tokenRandLen = 16 // 16 bytes = 32 hex chars
)

type Service struct {
	invitations domain.InvitationRepository
	profiles    domain.ProfileRepository
	ttl         time.Duration
	purgeGrace  time.Duration
	now         func() time.Time
}

func NewService(invitations domain.InvitationRepository, profiles domain.ProfileRepository, ttl, purgeGrace time.Duration) *Service {
	return &Service{
		invitations: invitations,
		profiles:    profiles,
		ttl:         ttl,
		purgeGrace:  purgeGrace,
		now:         time.Now,
	}
}

// Create issues an invitation for email to join the issuer's school with the
// given role. Rejects issuers without invite rights, emails that already
// belong to an active member, and emails with a pending invitation (the
// latter enforced by the storage-layer unique index, so concurrent creates
// race safely).
func (s *Service) Create(ctx context.Context, issuer *session.Context, email string, role domain.Role) (*domain.Invitation, error) {
	err := access.Authorize(issuer, issuer.TenantID, access.ClassInvitations)
	if err != nil {
		return nil, fmt.Errorf("invite.Create: %w", err)
	}

	if !role.Valid() {
		return nil, fmt.Errorf("invite.Create: role %q: %w", role, domain.ErrConflict)
	}

	email = strings.ToLower(strings.TrimSpace(email))

	member, err := s.profiles.ExistsActiveByEmail(ctx, issuer.TenantID, email)
	if err != nil {
		return nil, fmt.Errorf("invite.Create: %w", err)
	}
	if member {
		return nil, fmt.Errorf("invite.Create: %s is already an active member: %w", email, domain.ErrConflict)
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("invite.Create: %w", err)
	}

	now := s.now()
	inv := &domain.Invitation{
		ID:        uuid.New(),
		TenantID:  issuer.TenantID,
		Email:     email,
		Role:      role,
		InvitedBy: issuer.IdentityID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	err = s.invitations.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("invite.Create: %w", err)
	}

	return inv, nil
}

// Lookup returns the invitation for (token, email) only while it is
// unaccepted and unexpired, with the specific reason otherwise.
func (s *Service) Lookup(ctx context.Context, token, email string) (*domain.Invitation, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invite.Lookup: %w", err)
	}

	if !strings.EqualFold(inv.Email, email) {
		return nil, fmt.Errorf("invite.Lookup: %w", domain.ErrInvitationNotFound)
	}
	if inv.AcceptedAt != nil {
		return nil, fmt.Errorf("invite.Lookup: %w", domain.ErrInvitationAlreadyAccepted)
	}
	if !s.now().Before(inv.ExpiresAt) {
		return nil, fmt.Errorf("invite.Lookup: %w", domain.ErrInvitationExpired)
	}

	return inv, nil
}

// ListPending returns the issuer's school's open invitations.
func (s *Service) ListPending(ctx context.Context, issuer *session.Context) ([]*domain.Invitation, error) {
	err := access.Authorize(issuer, issuer.TenantID, access.ClassInvitations)
	if err != nil {
		return nil, fmt.Errorf("invite.ListPending: %w", err)
	}

	invitations, err := s.invitations.ListPending(ctx, issuer.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invite.ListPending: %w", err)
	}

	return invitations, nil
}

// Revoke cancels a pending invitation in the issuer's school.
func (s *Service) Revoke(ctx context.Context, issuer *session.Context, id uuid.UUID) error {
	err := access.Authorize(issuer, issuer.TenantID, access.ClassInvitations)
	if err != nil {
		return fmt.Errorf("invite.Revoke: %w", err)
	}

	err = s.invitations.Delete(ctx, issuer.TenantID, id)
	if err != nil {
		return fmt.Errorf("invite.Revoke: %w", err)
	}

	return nil
}

// PurgeExpired removes unaccepted invitations whose expiry is more than the
// grace period in the past. Accepted rows are untouched; the accept
// transition is atomic so there is no accepted-in-flight row to lose.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.invitations.PurgeExpired(ctx, s.now().Add(-s.purgeGrace))
	if err != nil {
		return 0, fmt.Errorf("invite.PurgeExpired: %w", err)
	}

	if n > 0 {
		log.Info().Int64("purged", n).Msg("invite: expired invitations purged")
	}

	return n, nil
}

func newToken() (string, error) {
	raw := make([]byte, tokenRandLen)
	_, err := rand.Read(raw)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(raw), nil
}
