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

type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO schools (id, name, slug, contact_email, contact_phone, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.Slug,
		nilIfEmpty(t.ContactEmail), nilIfEmpty(t.ContactPhone),
		t.Settings, t.CreatedAt, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("tenantRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("tenantRepo.Create: %w", err)
	}

	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT id, name, slug, contact_email, contact_phone, settings, created_at, updated_at
		 FROM schools WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetByID: %w", err)
	}

	return t, nil
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT id, name, slug, contact_email, contact_phone, settings, created_at, updated_at
		 FROM schools WHERE slug = $1`,
		slug,
	))
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetBySlug: %w", err)
	}

	return t, nil
}

func (r *TenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE schools SET name = $1, contact_email = $2, contact_phone = $3, settings = $4, updated_at = now()
		 WHERE id = $5`,
		t.Name, nilIfEmpty(t.ContactEmail), nilIfEmpty(t.ContactPhone), t.Settings, t.ID,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.Update: %w", domain.ErrTenantNotFound)
	}

	return nil
}

func (r *TenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Profiles, invitations, students and payments go with the school via
	// ON DELETE CASCADE foreign keys.
	tag, err := r.pool.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tenantRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.Delete: %w", domain.ErrTenantNotFound)
	}

	return nil
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var contactEmail, contactPhone *string

	err := row.Scan(&t.ID, &t.Name, &t.Slug, &contactEmail, &contactPhone, &t.Settings, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}

	if contactEmail != nil {
		t.ContactEmail = *contactEmail
	}
	if contactPhone != nil {
		t.ContactPhone = *contactPhone
	}

	return &t, nil
}
