package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is a single school: the isolation boundary every profile and
// business record belongs to. A tenant is created by the signup flow before
// its owner identity exists.
type Tenant struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	ContactEmail string
	ContactPhone string
	Settings     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	// Delete removes the tenant; storage-level cascades remove all
	// tenant-owned rows (profiles, invitations, students, payments).
	Delete(ctx context.Context, id uuid.UUID) error
}
