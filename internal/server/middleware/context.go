package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/session"
)

type contextKey string

const (
	ContextKeyIdentityID contextKey = "identity_id"
	ContextKeySession    contextKey = "session"
)

func IdentityIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyIdentityID).(uuid.UUID)
	return v, ok
}

// SessionFromContext returns the claims resolved once by the Auth
// middleware. A missing session means the identity is authenticated but has
// no profile yet: the empty-access state, not an error.
func SessionFromContext(ctx context.Context) (*session.Context, bool) {
	v, ok := ctx.Value(ContextKeySession).(*session.Context)
	return v, ok && v != nil
}
