package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/access"
	"github.com/classdesk/classdesk/internal/domain"
)

type CreateSchoolInput struct {
	Body struct {
		Name         string `json:"name" minLength:"1" maxLength:"255" doc:"School name"`
		Slug         string `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-safe slug (lowercase alphanumeric with hyphens)"`
		ContactEmail string `json:"contact_email,omitempty" format:"email" doc:"Contact email"`
		ContactPhone string `json:"contact_phone,omitempty" maxLength:"32" doc:"Contact phone"`
	}
}

type CreateSchoolOutput struct {
	Body *domain.Tenant
}

type GetSchoolOutput struct {
	Body *domain.Tenant
}

type UpdateSchoolInput struct {
	Body struct {
		Name         string         `json:"name,omitempty" maxLength:"255" doc:"School name"`
		ContactEmail string         `json:"contact_email,omitempty" format:"email" doc:"Contact email"`
		ContactPhone string         `json:"contact_phone,omitempty" maxLength:"32" doc:"Contact phone"`
		Settings     map[string]any `json:"settings,omitempty" doc:"Free-form school settings"`
	}
}

type UpdateSchoolOutput struct {
	Body *domain.Tenant
}

// RegisterSignupRoutes mounts the unauthenticated signup surface. Creating a
// school is the first step of onboarding and necessarily happens before the
// caller has any profile, so it is deliberately outside the session stack;
// the route group rate-limits it by client IP instead.
func RegisterSignupRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-school",
		Method:      http.MethodPost,
		Path:        "/schools",
		Summary:     "Register a new school",
		Tags:        []string{"Schools"},
	}, func(ctx context.Context, input *CreateSchoolInput) (*CreateSchoolOutput, error) {
		now := time.Now()
		t := &domain.Tenant{
			ID:           uuid.New(),
			Name:         input.Body.Name,
			Slug:         input.Body.Slug,
			ContactEmail: input.Body.ContactEmail,
			ContactPhone: input.Body.ContactPhone,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := store.Tenants().Create(ctx, t); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("slug already in use")
			}
			return nil, huma.Error500InternalServerError("failed to create school", err)
		}

		return &CreateSchoolOutput{Body: t}, nil
	})
}

// RegisterSchoolRoutes mounts the authenticated school-settings surface.
func RegisterSchoolRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-school",
		Method:      http.MethodGet,
		Path:        "/school",
		Summary:     "Get the caller's school",
		Tags:        []string{"Schools"},
	}, func(ctx context.Context, _ *struct{}) (*GetSchoolOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}

		t, err := store.Tenants().GetByID(ctx, sc.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrTenantNotFound) {
				return nil, huma.Error404NotFound("school not found")
			}
			return nil, huma.Error500InternalServerError("failed to get school", err)
		}

		return &GetSchoolOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-school",
		Method:      http.MethodPatch,
		Path:        "/school",
		Summary:     "Update school settings",
		Tags:        []string{"Schools"},
	}, func(ctx context.Context, input *UpdateSchoolInput) (*UpdateSchoolOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassTenant); err != nil {
			return nil, entityError("school", err)
		}

		existing, err := store.Tenants().GetByID(ctx, sc.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrTenantNotFound) {
				return nil, huma.Error404NotFound("school not found")
			}
			return nil, huma.Error500InternalServerError("failed to get school", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.ContactEmail != "" {
			existing.ContactEmail = input.Body.ContactEmail
		}
		if input.Body.ContactPhone != "" {
			existing.ContactPhone = input.Body.ContactPhone
		}
		if input.Body.Settings != nil {
			existing.Settings = input.Body.Settings
		}
		existing.UpdatedAt = time.Now()

		if err := store.Tenants().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update school", err)
		}

		return &UpdateSchoolOutput{Body: existing}, nil
	})
}
