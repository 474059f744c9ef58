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

type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

const studentColumns = `id, tenant_id, full_name, email, phone, guardian_name, guardian_phone, enrolled_at, created_at, updated_at`

func (r *StudentRepo) Create(ctx context.Context, s *domain.Student) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO students (id, tenant_id, full_name, email, phone, guardian_name, guardian_phone, enrolled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.TenantID, s.FullName,
		nilIfEmpty(s.Email), nilIfEmpty(s.Phone),
		nilIfEmpty(s.GuardianName), nilIfEmpty(s.GuardianPhone),
		s.EnrolledAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("studentRepo.Create: %w", err)
	}

	return nil
}

func (r *StudentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if err != nil {
		return nil, fmt.Errorf("studentRepo.GetByID: %w", err)
	}

	return s, nil
}

func (r *StudentRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE tenant_id = $1 ORDER BY full_name`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("studentRepo.List: %w", err)
	}
	defer rows.Close()

	var students []*domain.Student
	for rows.Next() {
		s, scanErr := scanStudent(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("studentRepo.List: scan: %w", scanErr)
		}
		students = append(students, s)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("studentRepo.List: rows: %w", err)
	}

	return students, nil
}

func (r *StudentRepo) Update(ctx context.Context, s *domain.Student) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET full_name = $1, email = $2, phone = $3, guardian_name = $4, guardian_phone = $5, updated_at = now()
		 WHERE tenant_id = $6 AND id = $7`,
		s.FullName, nilIfEmpty(s.Email), nilIfEmpty(s.Phone),
		nilIfEmpty(s.GuardianName), nilIfEmpty(s.GuardianPhone),
		s.TenantID, s.ID,
	)
	if err != nil {
		return fmt.Errorf("studentRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("studentRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var s domain.Student
	var email, phone, guardianName, guardianPhone *string

	err := row.Scan(&s.ID, &s.TenantID, &s.FullName, &email, &phone,
		&guardianName, &guardianPhone, &s.EnrolledAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if email != nil {
		s.Email = *email
	}
	if phone != nil {
		s.Phone = *phone
	}
	if guardianName != nil {
		s.GuardianName = *guardianName
	}
	if guardianPhone != nil {
		s.GuardianPhone = *guardianPhone
	}

	return &s, nil
}
