package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
)

type ListMembersOutput struct {
	Body []*domain.Profile
}

type ChangeMemberRoleInput struct {
	ID   uuid.UUID `path:"id" doc:"Member identity ID"`
	Body struct {
		Role domain.Role `json:"role" enum:"owner,manager,receptionist" doc:"New role"`
	}
}

type DeactivateMemberInput struct {
	ID uuid.UUID `path:"id" doc:"Member identity ID"`
}

// RegisterMemberRoutes mounts the staff roster surface.
func RegisterMemberRoutes(api huma.API, membersSvc MemberService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/members",
		Summary:     "List school staff",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, _ *struct{}) (*ListMembersOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}

		profiles, err := membersSvc.List(ctx, sc)
		if err != nil {
			if errors.Is(err, domain.ErrAccessDenied) {
				return nil, huma.Error403Forbidden("not allowed to list members")
			}
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		return &ListMembersOutput{Body: profiles}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-member-role",
		Method:      http.MethodPatch,
		Path:        "/members/{id}/role",
		Summary:     "Change a member's role",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, input *ChangeMemberRoleInput) (*struct{}, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}

		if err := membersSvc.ChangeRole(ctx, sc, input.ID, input.Body.Role); err != nil {
			if errors.Is(err, domain.ErrUnauthorizedRoleTransition) {
				return nil, huma.Error409Conflict("role change not allowed")
			}
			return nil, entityError("member", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-member",
		Method:      http.MethodPost,
		Path:        "/members/{id}/deactivate",
		Summary:     "Deactivate a member",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, input *DeactivateMemberInput) (*struct{}, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}

		if err := membersSvc.Deactivate(ctx, sc, input.ID); err != nil {
			if errors.Is(err, domain.ErrUnauthorizedRoleTransition) {
				return nil, huma.Error409Conflict("cannot deactivate the last active owner")
			}
			return nil, entityError("member", err)
		}

		return nil, nil
	})
}
