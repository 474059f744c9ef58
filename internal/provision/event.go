package provision

import "github.com/google/uuid"

// IdentityEvent is what the external identity provider emits when an
// identity is created or its verification state changes. Metadata is filled
// by the signup client and decides the onboarding path.
type IdentityEvent struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Email      string    `json:"email"`
	Verified   bool      `json:"verified"`
	Metadata   Metadata  `json:"metadata"`
}

// Metadata is the opaque signup bag carried on identity events. Exactly one
// of IsOwnerSignup or InvitationToken is expected to be set; events with
// neither are ignored.
type Metadata struct {
	IsOwnerSignup   bool      `json:"is_owner_signup,omitempty"`
	TenantID        uuid.UUID `json:"tenant_id,omitempty"`
	InvitationToken string    `json:"invitation_token,omitempty"`
	DisplayName     string    `json:"display_name,omitempty"`
	Phone           string    `json:"phone,omitempty"`
}
