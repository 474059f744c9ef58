package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks the lifecycle of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment is a tenant-owned financial record. Financial records are
// role-restricted: only owner and manager profiles may see or touch them.
type Payment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	StudentID   uuid.UUID
	AmountCents int64
	Currency    string
	Status      PaymentStatus
	Description string
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Payment, error)
	ListByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]*Payment, error)
}
