package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/classdesk/classdesk/internal/domain"
)

func TestAcceptFailure(t *testing.T) {
	t.Parallel()

	t.Run("accepted_row_reports_already_accepted", func(t *testing.T) {
		t.Parallel()

		acceptedAt := time.Now().Add(-time.Minute)
		assert.ErrorIs(t, acceptFailure(&acceptedAt), domain.ErrInvitationAlreadyAccepted)
	})

	t.Run("pending_row_reports_expired", func(t *testing.T) {
		t.Parallel()

		// Still unaccepted, so the conditional accept can only have missed on
		// expiry: an invitation that lapses between the caller's pre-check and
		// the update must not be reported as accepted.
		assert.ErrorIs(t, acceptFailure(nil), domain.ErrInvitationExpired)
	})
}
