package events_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk/internal/events"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("owner_signup_event", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"identity_id": "11111111-2222-3333-4444-555555555555",
			"email": "owner@school.example",
			"verified": false,
			"metadata": {
				"is_owner_signup": true,
				"tenant_id": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
				"display_name": "Pat Owner",
				"phone": "+61 400 000 000"
			}
		}`)

		evt, err := events.Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, uuid.MustParse("11111111-2222-3333-4444-555555555555"), evt.IdentityID)
		assert.Equal(t, "owner@school.example", evt.Email)
		assert.False(t, evt.Verified)
		assert.True(t, evt.Metadata.IsOwnerSignup)
		assert.Equal(t, uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"), evt.Metadata.TenantID)
		assert.Equal(t, "Pat Owner", evt.Metadata.DisplayName)
	})

	t.Run("invitation_event", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"identity_id": "11111111-2222-3333-4444-555555555555",
			"email": "a@x.com",
			"verified": true,
			"metadata": {"invitation_token": "cdinv_deadbeef"}
		}`)

		evt, err := events.Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, "cdinv_deadbeef", evt.Metadata.InvitationToken)
		assert.False(t, evt.Metadata.IsOwnerSignup)
		assert.Equal(t, uuid.Nil, evt.Metadata.TenantID)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		_, err := events.Decode([]byte(`not json`))
		assert.Error(t, err)
	})
}
