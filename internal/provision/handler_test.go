package provision_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/provision"
)

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTenantRepo) Create(context.Context, *domain.Tenant) error { panic("not implemented") }
func (m *mockTenantRepo) GetBySlug(context.Context, string) (*domain.Tenant, error) {
	panic("not implemented")
}
func (m *mockTenantRepo) Update(context.Context, *domain.Tenant) error { panic("not implemented") }
func (m *mockTenantRepo) Delete(context.Context, uuid.UUID) error      { panic("not implemented") }

type mockProfileRepo struct {
	createFirstOwnerFunc func(ctx context.Context, p *domain.Profile) (bool, error)
	getByIdentityIDFunc  func(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error)
}

func (m *mockProfileRepo) CreateFirstOwner(ctx context.Context, p *domain.Profile) (bool, error) {
	return m.createFirstOwnerFunc(ctx, p)
}

func (m *mockProfileRepo) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*domain.Profile, error) {
	if m.getByIdentityIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIdentityIDFunc(ctx, identityID)
}

func (m *mockProfileRepo) ListByTenant(context.Context, uuid.UUID) ([]*domain.Profile, error) {
	panic("not implemented")
}
func (m *mockProfileRepo) ExistsActiveByEmail(context.Context, uuid.UUID, string) (bool, error) {
	panic("not implemented")
}
func (m *mockProfileRepo) CountActiveByRole(context.Context, uuid.UUID, domain.Role) (int, error) {
	panic("not implemented")
}
func (m *mockProfileRepo) UpdateRole(context.Context, uuid.UUID, uuid.UUID, domain.Role) error {
	panic("not implemented")
}
func (m *mockProfileRepo) Deactivate(context.Context, uuid.UUID, uuid.UUID) error {
	panic("not implemented")
}

type mockInvitationRepo struct {
	getByTokenFunc func(ctx context.Context, token string) (*domain.Invitation, error)
	acceptFunc     func(ctx context.Context, invitationID uuid.UUID, p *domain.Profile) error
	called         bool
}

func (m *mockInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	m.called = true
	return m.getByTokenFunc(ctx, token)
}

func (m *mockInvitationRepo) AcceptAndCreateProfile(ctx context.Context, invitationID uuid.UUID, p *domain.Profile) error {
	return m.acceptFunc(ctx, invitationID, p)
}

func (m *mockInvitationRepo) Create(context.Context, *domain.Invitation) error {
	panic("not implemented")
}
func (m *mockInvitationRepo) ListPending(context.Context, uuid.UUID) ([]*domain.Invitation, error) {
	panic("not implemented")
}
func (m *mockInvitationRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	panic("not implemented")
}
func (m *mockInvitationRepo) PurgeExpired(context.Context, time.Time) (int64, error) {
	panic("not implemented")
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	identityID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	tenantID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	inviterID  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func visibleTenant() *mockTenantRepo {
	return &mockTenantRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
			return &domain.Tenant{ID: id}, nil
		},
	}
}

func ownerEvent(verified bool) provision.IdentityEvent {
	return provision.IdentityEvent{
		IdentityID: identityID,
		Email:      "owner@school.example",
		Verified:   verified,
		Metadata: provision.Metadata{
			IsOwnerSignup: true,
			TenantID:      tenantID,
			DisplayName:   "Pat Owner",
		},
	}
}

func invitedEvent(verified bool) provision.IdentityEvent {
	return provision.IdentityEvent{
		IdentityID: identityID,
		Email:      "a@x.com",
		Verified:   verified,
		Metadata: provision.Metadata{
			InvitationToken: "cd_tok123",
			DisplayName:     "Alex Invited",
		},
	}
}

func pendingInvitation() *domain.Invitation {
	return &domain.Invitation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     "a@x.com",
		Role:      domain.RoleManager,
		InvitedBy: inviterID,
		Token:     "cd_tok123",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

// ---------------------------------------------------------------------------
// Owner-signup path
// ---------------------------------------------------------------------------

func TestHandleIdentityEvent_OwnerSignup(t *testing.T) {
	t.Parallel()

	t.Run("creates_owner_profile_even_unverified", func(t *testing.T) {
		t.Parallel()

		var created *domain.Profile
		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(_ context.Context, p *domain.Profile) (bool, error) {
				created = p
				return true, nil
			},
		}

		h := provision.NewHandler(visibleTenant(), profiles, &mockInvitationRepo{}, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), ownerEvent(false))

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, identityID, created.IdentityID)
		assert.Equal(t, tenantID, created.TenantID)
		assert.Equal(t, domain.RoleOwner, created.Role)
		assert.True(t, created.Active)
		assert.Equal(t, "Pat Owner", created.DisplayName)
	})

	t.Run("redelivery_is_noop", func(t *testing.T) {
		t.Parallel()

		calls := 0
		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(context.Context, *domain.Profile) (bool, error) {
				calls++
				if calls == 1 {
					return true, nil
				}
				return false, nil // conflict on identity_id: row already there
			},
			getByIdentityIDFunc: func(context.Context, uuid.UUID) (*domain.Profile, error) {
				return &domain.Profile{IdentityID: identityID, TenantID: tenantID}, nil
			},
		}

		h := provision.NewHandler(visibleTenant(), profiles, &mockInvitationRepo{}, true, time.Second)

		require.NoError(t, h.HandleIdentityEvent(context.Background(), ownerEvent(true)))
		require.NoError(t, h.HandleIdentityEvent(context.Background(), ownerEvent(true)))
		assert.Equal(t, 2, calls)
	})

	t.Run("refuses_tenant_with_existing_members", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(context.Context, *domain.Profile) (bool, error) {
				return false, nil // tenant already has profiles
			},
			getByIdentityIDFunc: func(context.Context, uuid.UUID) (*domain.Profile, error) {
				return nil, domain.ErrNotFound
			},
		}

		h := provision.NewHandler(visibleTenant(), profiles, &mockInvitationRepo{}, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), ownerEvent(true))

		assert.ErrorIs(t, err, domain.ErrTenantAlreadyProvisioned)
	})

	t.Run("retries_until_tenant_visible", func(t *testing.T) {
		t.Parallel()

		lookups := 0
		tenants := &mockTenantRepo{
			getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
				lookups++
				if lookups < 3 {
					return nil, domain.ErrTenantNotFound
				}
				return &domain.Tenant{ID: id}, nil
			},
		}
		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(context.Context, *domain.Profile) (bool, error) { return true, nil },
		}

		h := provision.NewHandler(tenants, profiles, &mockInvitationRepo{}, true, 5*time.Second)
		err := h.HandleIdentityEvent(context.Background(), ownerEvent(true))

		require.NoError(t, err)
		assert.Equal(t, 3, lookups)
	})

	t.Run("visibility_timeout", func(t *testing.T) {
		t.Parallel()

		tenants := &mockTenantRepo{
			getByIDFunc: func(context.Context, uuid.UUID) (*domain.Tenant, error) {
				return nil, domain.ErrTenantNotFound
			},
		}
		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(context.Context, *domain.Profile) (bool, error) {
				t.Fatal("profile must not be created when the tenant never appears")
				return false, nil
			},
		}

		h := provision.NewHandler(tenants, profiles, &mockInvitationRepo{}, true, 10*time.Millisecond)
		err := h.HandleIdentityEvent(context.Background(), ownerEvent(true))

		assert.ErrorIs(t, err, domain.ErrTenantVisibilityTimeout)
	})

	t.Run("missing_tenant_id_fails_softly", func(t *testing.T) {
		t.Parallel()

		evt := ownerEvent(true)
		evt.Metadata.TenantID = uuid.Nil

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, &mockInvitationRepo{}, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), evt)

		assert.ErrorIs(t, err, domain.ErrTenantNotFound)
	})
}

// ---------------------------------------------------------------------------
// Invitation-signup path
// ---------------------------------------------------------------------------

func TestHandleIdentityEvent_InvitationSignup(t *testing.T) {
	t.Parallel()

	t.Run("accepts_and_creates_profile", func(t *testing.T) {
		t.Parallel()

		inv := pendingInvitation()
		var accepted uuid.UUID
		var created *domain.Profile
		invitations := &mockInvitationRepo{
			getByTokenFunc: func(_ context.Context, token string) (*domain.Invitation, error) {
				assert.Equal(t, "cd_tok123", token)
				return inv, nil
			},
			acceptFunc: func(_ context.Context, id uuid.UUID, p *domain.Profile) error {
				accepted = id
				created = p
				return nil
			},
		}

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, invitations, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(true))

		require.NoError(t, err)
		assert.Equal(t, inv.ID, accepted)
		require.NotNil(t, created)
		assert.Equal(t, tenantID, created.TenantID)
		assert.Equal(t, domain.RoleManager, created.Role)
		require.NotNil(t, created.InvitedBy)
		assert.Equal(t, inviterID, *created.InvitedBy)
	})

	t.Run("unverified_is_deferred", func(t *testing.T) {
		t.Parallel()

		invitations := &mockInvitationRepo{
			getByTokenFunc: func(context.Context, string) (*domain.Invitation, error) {
				return pendingInvitation(), nil
			},
		}

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, invitations, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(false))

		require.NoError(t, err)
		assert.False(t, invitations.called, "deferred event must not touch the invitation registry")
	})

	t.Run("unverified_allowed_when_policy_disabled", func(t *testing.T) {
		t.Parallel()

		accepted := false
		invitations := &mockInvitationRepo{
			getByTokenFunc: func(context.Context, string) (*domain.Invitation, error) {
				return pendingInvitation(), nil
			},
			acceptFunc: func(context.Context, uuid.UUID, *domain.Profile) error {
				accepted = true
				return nil
			},
		}

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, invitations, false, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(false))

		require.NoError(t, err)
		assert.True(t, accepted)
	})

	t.Run("token_not_found", func(t *testing.T) {
		t.Parallel()

		invitations := &mockInvitationRepo{
			getByTokenFunc: func(context.Context, string) (*domain.Invitation, error) {
				return nil, domain.ErrInvitationNotFound
			},
		}

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, invitations, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(true))

		assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
	})

	t.Run("email_mismatch", func(t *testing.T) {
		t.Parallel()

		inv := pendingInvitation()
		inv.Email = "someone-else@x.com"
		invitations := &mockInvitationRepo{
			getByTokenFunc: func(context.Context, string) (*domain.Invitation, error) { return inv, nil },
		}

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, invitations, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(true))

		assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
	})

	t.Run("expired_invitation", func(t *testing.T) {
		t.Parallel()

		inv := pendingInvitation()
		inv.ExpiresAt = time.Now().Add(-24 * time.Hour)
		invitations := &mockInvitationRepo{
			getByTokenFunc: func(context.Context, string) (*domain.Invitation, error) { return inv, nil },
		}

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, invitations, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(true))

		assert.ErrorIs(t, err, domain.ErrInvitationExpired)
	})

	t.Run("already_accepted", func(t *testing.T) {
		t.Parallel()

		inv := pendingInvitation()
		acceptedAt := time.Now().Add(-time.Hour)
		inv.AcceptedAt = &acceptedAt
		invitations := &mockInvitationRepo{
			getByTokenFunc: func(context.Context, string) (*domain.Invitation, error) { return inv, nil },
		}

		h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, invitations, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(true))

		assert.ErrorIs(t, err, domain.ErrInvitationAlreadyAccepted)
	})

	t.Run("redelivery_after_profile_exists_is_noop", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileRepo{
			getByIdentityIDFunc: func(context.Context, uuid.UUID) (*domain.Profile, error) {
				return &domain.Profile{IdentityID: identityID, TenantID: tenantID}, nil
			},
		}
		invitations := &mockInvitationRepo{
			getByTokenFunc: func(context.Context, string) (*domain.Invitation, error) {
				return nil, errors.New("must not be called")
			},
		}

		h := provision.NewHandler(visibleTenant(), profiles, invitations, true, time.Second)
		err := h.HandleIdentityEvent(context.Background(), invitedEvent(true))

		require.NoError(t, err)
		assert.False(t, invitations.called)
	})
}

func TestHandleIdentityEvent_NoMetadata(t *testing.T) {
	t.Parallel()

	h := provision.NewHandler(visibleTenant(), &mockProfileRepo{}, &mockInvitationRepo{}, true, time.Second)
	err := h.HandleIdentityEvent(context.Background(), provision.IdentityEvent{
		IdentityID: identityID,
		Email:      "nobody@x.com",
		Verified:   true,
	})

	assert.NoError(t, err)
}

// ---------------------------------------------------------------------------
// EnsureProfile fallback
// ---------------------------------------------------------------------------

func TestEnsureProfile(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(_ context.Context, p *domain.Profile) (bool, error) {
				assert.Equal(t, domain.RoleOwner, p.Role)
				return true, nil
			},
		}

		h := provision.NewHandler(visibleTenant(), profiles, &mockInvitationRepo{}, true, time.Second)
		result, err := h.EnsureProfile(context.Background(), identityID, tenantID, "owner@school.example", "Pat", "")

		require.NoError(t, err)
		assert.Equal(t, provision.EnsureCreated, result)
	})

	t.Run("already_exists", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(context.Context, *domain.Profile) (bool, error) { return false, nil },
			getByIdentityIDFunc: func(context.Context, uuid.UUID) (*domain.Profile, error) {
				return &domain.Profile{IdentityID: identityID, TenantID: tenantID}, nil
			},
		}

		h := provision.NewHandler(visibleTenant(), profiles, &mockInvitationRepo{}, true, time.Second)
		result, err := h.EnsureProfile(context.Background(), identityID, tenantID, "owner@school.example", "Pat", "")

		require.NoError(t, err)
		assert.Equal(t, provision.EnsureAlreadyExists, result)
	})

	t.Run("failed_tenant_already_bootstrapped", func(t *testing.T) {
		t.Parallel()

		// A profile-less identity naming an established school must not be
		// able to mint itself an extra owner profile there.
		strangerID := uuid.MustParse("99999999-9999-9999-9999-999999999999")
		profiles := &mockProfileRepo{
			createFirstOwnerFunc: func(_ context.Context, p *domain.Profile) (bool, error) {
				assert.Equal(t, tenantID, p.TenantID)
				return false, nil // tenant already has profiles, nothing written
			},
			getByIdentityIDFunc: func(context.Context, uuid.UUID) (*domain.Profile, error) {
				return nil, domain.ErrNotFound
			},
		}

		h := provision.NewHandler(visibleTenant(), profiles, &mockInvitationRepo{}, true, time.Second)
		result, err := h.EnsureProfile(context.Background(), strangerID, tenantID, "stranger@x.com", "Stranger", "")

		assert.Equal(t, provision.EnsureFailed, result)
		assert.ErrorIs(t, err, domain.ErrTenantAlreadyProvisioned)
	})

	t.Run("failed_tenant_missing", func(t *testing.T) {
		t.Parallel()

		tenants := &mockTenantRepo{
			getByIDFunc: func(context.Context, uuid.UUID) (*domain.Tenant, error) {
				return nil, domain.ErrTenantNotFound
			},
		}

		h := provision.NewHandler(tenants, &mockProfileRepo{}, &mockInvitationRepo{}, true, 10*time.Millisecond)
		result, err := h.EnsureProfile(context.Background(), identityID, tenantID, "owner@school.example", "Pat", "")

		assert.Equal(t, provision.EnsureFailed, result)
		assert.ErrorIs(t, err, domain.ErrTenantVisibilityTimeout)
	})
}
