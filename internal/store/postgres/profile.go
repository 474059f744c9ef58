package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classdesk/classdesk/internal/domain"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `identity_id, tenant_id, email, display_name, phone, role, active, invited_by, created_at, updated_at`

func (r *ProfileRepo) CreateFirstOwner(ctx context.Context, p *domain.Profile) (bool, error) {
	// Single statement so the "tenant has no profiles yet" check and the
	// insert see the same snapshot; ON CONFLICT keyed on the identity id
	// keeps event redelivery from producing a second profile.
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (identity_id, tenant_id, email, display_name, phone, role, active, invited_by, created_at, updated_at)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		 WHERE NOT EXISTS (SELECT 1 FROM profiles WHERE tenant_id = $2)
		 ON CONFLICT (identity_id) DO NOTHING`,
		p.IdentityID, p.TenantID, p.Email, p.DisplayName, nilIfEmpty(p.Phone),
		p.Role, p.Active, p.InvitedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("profileRepo.CreateFirstOwner: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *ProfileRepo) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE identity_id = $1`,
		identityID,
	))
	if err != nil {
		return nil, fmt.Errorf("profileRepo.GetByIdentityID: %w", err)
	}

	return p, nil
}

func (r *ProfileRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE tenant_id = $1 ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("profileRepo.ListByTenant: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		p, scanErr := scanProfile(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("profileRepo.ListByTenant: scan: %w", scanErr)
		}
		profiles = append(profiles, p)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("profileRepo.ListByTenant: rows: %w", err)
	}

	return profiles, nil
}

func (r *ProfileRepo) ExistsActiveByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var exists bool

	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM profiles
			WHERE tenant_id = $1 AND lower(email) = lower($2) AND active
		)`,
		tenantID, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("profileRepo.ExistsActiveByEmail: %w", err)
	}

	return exists, nil
}

func (r *ProfileRepo) CountActiveByRole(ctx context.Context, tenantID uuid.UUID, role domain.Role) (int, error) {
	var n int

	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM profiles WHERE tenant_id = $1 AND role = $2 AND active`,
		tenantID, role,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("profileRepo.CountActiveByRole: %w", err)
	}

	return n, nil
}

func (r *ProfileRepo) UpdateRole(ctx context.Context, tenantID, identityID uuid.UUID, role domain.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET role = $1, updated_at = now()
		 WHERE tenant_id = $2 AND identity_id = $3`,
		role, tenantID, identityID,
	)
	if err != nil {
		return fmt.Errorf("profileRepo.UpdateRole: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profileRepo.UpdateRole: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ProfileRepo) Deactivate(ctx context.Context, tenantID, identityID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET active = false, updated_at = now()
		 WHERE tenant_id = $1 AND identity_id = $2`,
		tenantID, identityID,
	)
	if err != nil {
		return fmt.Errorf("profileRepo.Deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profileRepo.Deactivate: %w", domain.ErrNotFound)
	}

	return nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var phone *string

	err := row.Scan(&p.IdentityID, &p.TenantID, &p.Email, &p.DisplayName, &phone,
		&p.Role, &p.Active, &p.InvitedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if phone != nil {
		p.Phone = *phone
	}

	return &p, nil
}
