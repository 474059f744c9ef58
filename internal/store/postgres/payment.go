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

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, tenant_id, student_id, amount_cents, currency, status, description, paid_at, created_at, updated_at`

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payments (id, tenant_id, student_id, amount_cents, currency, status, description, paid_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.TenantID, p.StudentID, p.AmountCents, p.Currency, p.Status,
		nilIfEmpty(p.Description), p.PaidAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("paymentRepo.Create: %w", err)
	}

	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if err != nil {
		return nil, fmt.Errorf("paymentRepo.GetByID: %w", err)
	}

	return p, nil
}

func (r *PaymentRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Payment, error) {
	return r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID)
}

func (r *PaymentRepo) ListByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]*domain.Payment, error) {
	return r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = $1 AND student_id = $2 ORDER BY created_at DESC`,
		tenantID, studentID)
}

func (r *PaymentRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("paymentRepo.list: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, scanErr := scanPayment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("paymentRepo.list: scan: %w", scanErr)
		}
		payments = append(payments, p)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("paymentRepo.list: rows: %w", err)
	}

	return payments, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var description *string

	err := row.Scan(&p.ID, &p.TenantID, &p.StudentID, &p.AmountCents, &p.Currency,
		&p.Status, &description, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if description != nil {
		p.Description = *description
	}

	return &p, nil
}
