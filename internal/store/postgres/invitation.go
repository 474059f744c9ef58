package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classdesk/classdesk/internal/domain"
)

type InvitationRepo struct {
	pool *pgxpool.Pool
}

func NewInvitationRepo(pool *pgxpool.Pool) *InvitationRepo {
	return &InvitationRepo{pool: pool}
}

const invitationColumns = `id, tenant_id, email, role, invited_by, token, expires_at, accepted_at, created_at`

func (r *InvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	// The partial unique index on (tenant_id, lower(email)) WHERE accepted_at
	// IS NULL enforces the one-pending-invitation invariant; a second create
	// races cleanly into a unique violation.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invitations (id, tenant_id, email, role, invited_by, token, expires_at, created_at)
		 VALUES ($1, $2, $3, lower($4), $5, $6, $7, $8)`,
		inv.ID, inv.TenantID, inv.Email, inv.Role, inv.InvitedBy, inv.Token, inv.ExpiresAt, inv.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("invitationRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("invitationRepo.Create: %w", err)
	}

	return nil
}

func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`,
		token,
	))
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.GetByToken: %w", err)
	}

	return inv, nil
}

func (r *InvitationRepo) ListPending(ctx context.Context, tenantID uuid.UUID) ([]*domain.Invitation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE tenant_id = $1 AND accepted_at IS NULL AND expires_at > now()
		 ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.ListPending: %w", err)
	}
	defer rows.Close()

	var invitations []*domain.Invitation
	for rows.Next() {
		inv, scanErr := scanInvitation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("invitationRepo.ListPending: scan: %w", scanErr)
		}
		invitations = append(invitations, inv)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.ListPending: rows: %w", err)
	}

	return invitations, nil
}

func (r *InvitationRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM invitations WHERE tenant_id = $1 AND id = $2 AND accepted_at IS NULL`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("invitationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invitationRepo.Delete: %w", domain.ErrInvitationNotFound)
	}

	return nil
}

func (r *InvitationRepo) AcceptAndCreateProfile(ctx context.Context, invitationID uuid.UUID, p *domain.Profile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("invitationRepo.AcceptAndCreateProfile: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Conditional state transition: only one of two concurrent accepts can
	// flip accepted_at from NULL.
	tag, err := tx.Exec(ctx,
		`UPDATE invitations SET accepted_at = now()
		 WHERE id = $1 AND accepted_at IS NULL AND expires_at > now()`,
		invitationID,
	)
	if err != nil {
		return fmt.Errorf("invitationRepo.AcceptAndCreateProfile: accept: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The row either raced another accept or expired since the caller's
		// pre-check; re-read it to report the right reason.
		var acceptedAt *time.Time
		err = tx.QueryRow(ctx,
			`SELECT accepted_at FROM invitations WHERE id = $1`,
			invitationID,
		).Scan(&acceptedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("invitationRepo.AcceptAndCreateProfile: %w", domain.ErrInvitationNotFound)
		}
		if err != nil {
			return fmt.Errorf("invitationRepo.AcceptAndCreateProfile: reread: %w", err)
		}
		return fmt.Errorf("invitationRepo.AcceptAndCreateProfile: %w", acceptFailure(acceptedAt))
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (identity_id, tenant_id, email, display_name, phone, role, active, invited_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (identity_id) DO NOTHING`,
		p.IdentityID, p.TenantID, p.Email, p.DisplayName, nilIfEmpty(p.Phone),
		p.Role, p.Active, p.InvitedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("invitationRepo.AcceptAndCreateProfile: profile: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("invitationRepo.AcceptAndCreateProfile: commit: %w", err)
	}

	return nil
}

func (r *InvitationRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	// Accepted rows are never purged here; row-level locking in the accept
	// transaction means an accept-in-flight row is either already accepted
	// (excluded by the predicate) or still pending and past cutoff.
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("invitationRepo.PurgeExpired: %w", err)
	}

	return tag.RowsAffected(), nil
}

// acceptFailure maps a pending-accept miss to its cause: a row that is still
// unaccepted can only have failed the update predicate on expiry.
func acceptFailure(acceptedAt *time.Time) error {
	if acceptedAt != nil {
		return domain.ErrInvitationAlreadyAccepted
	}
	return domain.ErrInvitationExpired
}

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var inv domain.Invitation

	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.InvitedBy,
		&inv.Token, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &inv, nil
}
