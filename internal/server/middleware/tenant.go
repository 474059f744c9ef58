package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequireSession rejects requests without a resolved, active session
// context. Must be chained after Auth. The denial body matches the one a
// failed entity lookup produces, so a profile-less or deactivated caller
// learns nothing it could not learn from a 404.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, ok := SessionFromContext(r.Context())
			if !ok || !sc.Active || sc.TenantID == uuid.Nil {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"no active school membership"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
