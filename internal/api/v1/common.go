package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/server/middleware"
	"github.com/classdesk/classdesk/internal/session"
)

func callerSession(ctx context.Context) (*session.Context, error) {
	sc, ok := middleware.SessionFromContext(ctx)
	if !ok {
		return nil, huma.Error403Forbidden("no active school membership")
	}
	return sc, nil
}

// entityError maps repository and authorization failures on a tenant-owned
// record to a response. Denials and storage misses collapse into the same
// 404 so a caller cannot tell whether a record exists outside its school.
func entityError(entity string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAccessDenied) {
		return huma.Error404NotFound(entity + " not found")
	}
	return huma.Error500InternalServerError("failed to load "+entity, err)
}
