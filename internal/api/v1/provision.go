package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/server/middleware"
)

type ProvisionInput struct {
	Body struct {
		SchoolID    uuid.UUID `json:"school_id" doc:"School the caller just registered"`
		Email       string    `json:"email" format:"email" doc:"Caller's email"`
		DisplayName string    `json:"display_name,omitempty" maxLength:"255" doc:"Display name"`
		Phone       string    `json:"phone,omitempty" maxLength:"32" doc:"Phone number"`
	}
}

type ProvisionOutput struct {
	Body struct {
		Result string `json:"result" enum:"created,already_exists,failed" doc:"Provisioning outcome"`
		Reason string `json:"reason,omitempty" doc:"Failure reason when result is failed"`
	}
}

// RegisterProvisionRoutes mounts the provisioning fallback. It sits behind
// token authentication but not behind session resolution: its whole point is
// to mint the caller's first profile when the event-driven path has not
// delivered yet. The identity comes from the verified token, never the body.
func RegisterProvisionRoutes(api huma.API, provisioner ProvisionService) {
	huma.Register(api, huma.Operation{
		OperationID: "ensure-profile",
		Method:      http.MethodPost,
		Path:        "/provision",
		Summary:     "Provision the caller's owner profile",
		Tags:        []string{"Provisioning"},
	}, func(ctx context.Context, input *ProvisionInput) (*ProvisionOutput, error) {
		identityID, ok := middleware.IdentityIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing identity")
		}

		out := &ProvisionOutput{}
		result, err := provisioner.EnsureProfile(ctx, identityID, input.Body.SchoolID, input.Body.Email, input.Body.DisplayName, input.Body.Phone)
		out.Body.Result = string(result)

		switch {
		case err == nil:
		case errors.Is(err, domain.ErrTenantVisibilityTimeout):
			out.Body.Reason = "school not yet visible"
		case errors.Is(err, domain.ErrTenantNotFound):
			out.Body.Reason = "school not found"
		case errors.Is(err, domain.ErrTenantAlreadyProvisioned):
			out.Body.Reason = "school already has members"
		default:
			return nil, huma.Error500InternalServerError("provisioning failed", err)
		}

		return out, nil
	})
}
