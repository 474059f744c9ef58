package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/server/middleware"
)

type GetSessionOutput struct {
	Body struct {
		IdentityID  uuid.UUID   `json:"identity_id" doc:"Authenticated identity"`
		Provisioned bool        `json:"provisioned" doc:"Whether a profile exists for this identity"`
		SchoolID    *uuid.UUID  `json:"school_id,omitempty" doc:"School of the caller's profile"`
		Role        domain.Role `json:"role,omitempty" doc:"Role within the school"`
		Active      bool        `json:"active" doc:"Whether the profile is active"`
	}
}

// RegisterSessionRoutes mounts the whoami endpoint. It runs behind token
// authentication only, so a freshly signed-up identity with no profile yet
// still gets a well-formed empty-access answer instead of a 403.
func RegisterSessionRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/session",
		Summary:     "Describe the caller's membership",
		Tags:        []string{"Session"},
	}, func(ctx context.Context, _ *struct{}) (*GetSessionOutput, error) {
		identityID, ok := middleware.IdentityIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing identity")
		}

		out := &GetSessionOutput{}
		out.Body.IdentityID = identityID

		if sc, ok := middleware.SessionFromContext(ctx); ok {
			out.Body.Provisioned = true
			tid := sc.TenantID
			out.Body.SchoolID = &tid
			out.Body.Role = sc.Role
			out.Body.Active = sc.Active
		}

		return out, nil
	})
}
