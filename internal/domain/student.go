package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Student is a tenant-owned business record in the general access class:
// any active profile of the owning school may read or write it.
type Student struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	FullName      string
	Email         string
	Phone         string
	GuardianName  string
	GuardianPhone string
	EnrolledAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type StudentRepository interface {
	Create(ctx context.Context, s *Student) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Student, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Student, error)
	Update(ctx context.Context, s *Student) error
}
