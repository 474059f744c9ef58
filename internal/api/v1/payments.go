package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/access"
	"github.com/classdesk/classdesk/internal/domain"
)

type CreatePaymentInput struct {
	Body struct {
		StudentID   uuid.UUID `json:"student_id" doc:"Student the payment belongs to"`
		AmountCents int64     `json:"amount_cents" minimum:"1" doc:"Amount in minor currency units"`
		Currency    string    `json:"currency" minLength:"3" maxLength:"3" doc:"ISO 4217 currency code"`
		Description string    `json:"description,omitempty" maxLength:"500" doc:"Payment description"`
	}
}

type CreatePaymentOutput struct {
	Body *domain.Payment
}

type ListPaymentsInput struct {
	StudentID *uuid.UUID `query:"student_id" doc:"Filter by student"`
}

type ListPaymentsOutput struct {
	Body []*domain.Payment
}

type GetPaymentInput struct {
	ID uuid.UUID `path:"id" doc:"Payment ID"`
}

type GetPaymentOutput struct {
	Body *domain.Payment
}

// RegisterPaymentRoutes mounts the financial records surface. Payments are
// role-restricted: receptionists get the same answer for "exists but
// forbidden" and "does not exist".
func RegisterPaymentRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-payment",
		Method:      http.MethodPost,
		Path:        "/payments",
		Summary:     "Record a payment",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *CreatePaymentInput) (*CreatePaymentOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassPayments); err != nil {
			return nil, entityError("payment", err)
		}

		if _, err := store.Students().GetByID(ctx, sc.TenantID, input.Body.StudentID); err != nil {
			return nil, entityError("student", err)
		}

		now := time.Now()
		p := &domain.Payment{
			ID:          uuid.New(),
			TenantID:    sc.TenantID,
			StudentID:   input.Body.StudentID,
			AmountCents: input.Body.AmountCents,
			Currency:    input.Body.Currency,
			Status:      domain.PaymentStatusPending,
			Description: input.Body.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Payments().Create(ctx, p); err != nil {
			return nil, huma.Error500InternalServerError("failed to create payment", err)
		}

		return &CreatePaymentOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-payments",
		Method:      http.MethodGet,
		Path:        "/payments",
		Summary:     "List payments",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *ListPaymentsInput) (*ListPaymentsOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassPayments); err != nil {
			return nil, entityError("payment", err)
		}

		var (
			payments []*domain.Payment
			listErr  error
		)
		if input.StudentID != nil {
			payments, listErr = store.Payments().ListByStudent(ctx, sc.TenantID, *input.StudentID)
		} else {
			payments, listErr = store.Payments().List(ctx, sc.TenantID)
		}
		if listErr != nil {
			return nil, huma.Error500InternalServerError("failed to list payments", listErr)
		}

		return &ListPaymentsOutput{Body: payments}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-payment",
		Method:      http.MethodGet,
		Path:        "/payments/{id}",
		Summary:     "Get a payment by ID",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *GetPaymentInput) (*GetPaymentOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassPayments); err != nil {
			return nil, entityError("payment", err)
		}

		p, err := store.Payments().GetByID(ctx, sc.TenantID, input.ID)
		if err != nil {
			return nil, entityError("payment", err)
		}

		return &GetPaymentOutput{Body: p}, nil
	})
}
