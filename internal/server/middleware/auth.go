package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/classdesk/classdesk/internal/session"
)

// SessionResolver resolves tenant claims for an authenticated identity.
// *session.Resolver satisfies it.
type SessionResolver interface {
	Resolve(ctx context.Context, identityID uuid.UUID) (*session.Context, error)
}

// Auth validates the bearer token issued by the external identity provider
// and resolves the caller's session context exactly once per request. The
// token's subject is the identity id; tenant and role are never trusted from
// the token, only from the profile lookup, so a role change or deactivation
// takes effect on the next request rather than at token expiry.
//
// A valid token without a profile still passes: the request proceeds in the
// empty-access state and RequireSession (or any Authorize call) denies it
// downstream. Authentication never breaks on a provisioning gap.
func Auth(jwtSecret string, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			identityID, ok := validateToken(tok, jwtSecret)
			if !ok {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentityID, identityID)

			sc, err := resolver.Resolve(ctx, identityID)
			switch {
			case err == nil:
				ctx = context.WithValue(ctx, ContextKeySession, sc)
			case errors.Is(err, session.ErrNoProfile):
				// Profile-less identity: authenticated, zero access.
			default:
				log.Error().Err(err).Stringer("identity_id", identityID).Msg("auth: session resolution failed")
				http.Error(w, `{"title":"Internal Server Error","status":500,"detail":"session resolution failed"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func validateToken(tokenStr, secret string) (uuid.UUID, bool) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}

	return identityID, true
}
