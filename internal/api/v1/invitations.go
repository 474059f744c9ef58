package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
)

type CreateInvitationInput struct {
	Body struct {
		Email string      `json:"email" format:"email" doc:"Invitee email"`
		Role  domain.Role `json:"role" enum:"owner,manager,receptionist" doc:"Role the invitee will hold"`
	}
}

type CreateInvitationOutput struct {
	Body *domain.Invitation
}

type ListInvitationsOutput struct {
	Body []*domain.Invitation
}

type LookupInvitationInput struct {
	Token string `query:"token" required:"true" doc:"Invitation token"`
	Email string `query:"email" required:"true" format:"email" doc:"Invitee email"`
}

type LookupInvitationOutput struct {
	Body struct {
		SchoolID  uuid.UUID   `json:"school_id" doc:"School the invitation joins"`
		Email     string      `json:"email" doc:"Invitee email"`
		Role      domain.Role `json:"role" doc:"Role granted on acceptance"`
		ExpiresAt string      `json:"expires_at" format:"date-time" doc:"Expiry timestamp"`
	}
}

type RevokeInvitationInput struct {
	ID uuid.UUID `path:"id" doc:"Invitation ID"`
}

// RegisterInvitationRoutes mounts invitation management for signed-in staff.
func RegisterInvitationRoutes(api huma.API, invites InviteService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-invitation",
		Method:      http.MethodPost,
		Path:        "/invitations",
		Summary:     "Invite a staff member",
		Tags:        []string{"Invitations"},
	}, func(ctx context.Context, input *CreateInvitationInput) (*CreateInvitationOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}

		inv, err := invites.Create(ctx, sc, input.Body.Email, input.Body.Role)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrAccessDenied):
				return nil, huma.Error403Forbidden("not allowed to manage invitations")
			case errors.Is(err, domain.ErrConflict):
				return nil, huma.Error409Conflict("email already a member or already invited")
			}
			return nil, huma.Error500InternalServerError("failed to create invitation", err)
		}

		return &CreateInvitationOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invitations",
		Method:      http.MethodGet,
		Path:        "/invitations",
		Summary:     "List pending invitations",
		Tags:        []string{"Invitations"},
	}, func(ctx context.Context, _ *struct{}) (*ListInvitationsOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}

		invs, err := invites.ListPending(ctx, sc)
		if err != nil {
			if errors.Is(err, domain.ErrAccessDenied) {
				return nil, huma.Error403Forbidden("not allowed to manage invitations")
			}
			return nil, huma.Error500InternalServerError("failed to list invitations", err)
		}

		return &ListInvitationsOutput{Body: invs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-invitation",
		Method:      http.MethodDelete,
		Path:        "/invitations/{id}",
		Summary:     "Revoke a pending invitation",
		Tags:        []string{"Invitations"},
	}, func(ctx context.Context, input *RevokeInvitationInput) (*struct{}, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}

		if err := invites.Revoke(ctx, sc, input.ID); err != nil {
			return nil, entityError("invitation", err)
		}

		return nil, nil
	})
}

// RegisterInvitationLookupRoutes mounts the pre-signup invitation check. An
// invitee has no account yet, so this lives on the public group; it reveals
// nothing without the matching (token, email) pair and never returns the
// token back.
func RegisterInvitationLookupRoutes(api huma.API, invites InviteService) {
	huma.Register(api, huma.Operation{
		OperationID: "lookup-invitation",
		Method:      http.MethodGet,
		Path:        "/invitations/lookup",
		Summary:     "Check an invitation before signup",
		Tags:        []string{"Invitations"},
	}, func(ctx context.Context, input *LookupInvitationInput) (*LookupInvitationOutput, error) {
		inv, err := invites.Lookup(ctx, input.Token, input.Email)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvitationExpired):
				return nil, huma.Error410Gone("invitation expired")
			case errors.Is(err, domain.ErrInvitationAlreadyAccepted):
				return nil, huma.Error410Gone("invitation already used")
			case errors.Is(err, domain.ErrInvitationNotFound):
				return nil, huma.Error404NotFound("invitation not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up invitation", err)
		}

		out := &LookupInvitationOutput{}
		out.Body.SchoolID = inv.TenantID
		out.Body.Email = inv.Email
		out.Body.Role = inv.Role
		out.Body.ExpiresAt = inv.ExpiresAt.UTC().Format(time.RFC3339)
		return out, nil
	})
}
