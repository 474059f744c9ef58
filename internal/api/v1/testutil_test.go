package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/provision"
	"github.com/classdesk/classdesk/internal/server/middleware"
	"github.com/classdesk/classdesk/internal/session"
)

// ---------------------------------------------------------------------------
// Context helpers — inject identity/session into context for DoCtx
// ---------------------------------------------------------------------------

func identityCtx(identityID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyIdentityID, identityID)
	return ctx
}

func sessionCtx(sc *session.Context) context.Context {
	ctx := identityCtx(sc.IdentityID)
	ctx = context.WithValue(ctx, middleware.ContextKeySession, sc)
	return ctx
}

func memberSession(tenantID uuid.UUID, role domain.Role) *session.Context {
	return &session.Context{
		IdentityID: uuid.New(),
		TenantID:   tenantID,
		Role:       role,
		Active:     true,
	}
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tenants     domain.TenantRepository
	profiles    domain.ProfileRepository
	invitations domain.InvitationRepository
	students    domain.StudentRepository
	payments    domain.PaymentRepository
}

func (m *mockDataStore) Tenants() domain.TenantRepository         { return m.tenants }
func (m *mockDataStore) Profiles() domain.ProfileRepository       { return m.profiles }
func (m *mockDataStore) Invitations() domain.InvitationRepository { return m.invitations }
func (m *mockDataStore) Students() domain.StudentRepository       { return m.students }
func (m *mockDataStore) Payments() domain.PaymentRepository       { return m.payments }

// ---------------------------------------------------------------------------
// Mock TenantRepository
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc    func(ctx context.Context, t *domain.Tenant) error
	getByIDFunc   func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	getBySlugFunc func(ctx context.Context, slug string) (*domain.Tenant, error)
	updateFunc    func(ctx context.Context, t *domain.Tenant) error
	deleteFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	return m.createFunc(ctx, t)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock StudentRepository
// ---------------------------------------------------------------------------

type mockStudentRepo struct {
	createFunc  func(ctx context.Context, s *domain.Student) error
	getByIDFunc func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Student, error)
	listFunc    func(ctx context.Context, tenantID uuid.UUID) ([]*domain.Student, error)
	updateFunc  func(ctx context.Context, s *domain.Student) error
}

func (m *mockStudentRepo) Create(ctx context.Context, s *domain.Student) error {
	return m.createFunc(ctx, s)
}

func (m *mockStudentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Student, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockStudentRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Student, error) {
	return m.listFunc(ctx, tenantID)
}

func (m *mockStudentRepo) Update(ctx context.Context, s *domain.Student) error {
	return m.updateFunc(ctx, s)
}

// ---------------------------------------------------------------------------
// Mock PaymentRepository
// ---------------------------------------------------------------------------

type mockPaymentRepo struct {
	createFunc        func(ctx context.Context, p *domain.Payment) error
	getByIDFunc       func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Payment, error)
	listFunc          func(ctx context.Context, tenantID uuid.UUID) ([]*domain.Payment, error)
	listByStudentFunc func(ctx context.Context, tenantID, studentID uuid.UUID) ([]*domain.Payment, error)
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	return m.createFunc(ctx, p)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Payment, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockPaymentRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Payment, error) {
	return m.listFunc(ctx, tenantID)
}

func (m *mockPaymentRepo) ListByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]*domain.Payment, error) {
	return m.listByStudentFunc(ctx, tenantID, studentID)
}

// ---------------------------------------------------------------------------
// Mock InviteService
// ---------------------------------------------------------------------------

type mockInviteService struct {
	createFunc      func(ctx context.Context, issuer *session.Context, email string, role domain.Role) (*domain.Invitation, error)
	lookupFunc      func(ctx context.Context, token, email string) (*domain.Invitation, error)
	listPendingFunc func(ctx context.Context, issuer *session.Context) ([]*domain.Invitation, error)
	revokeFunc      func(ctx context.Context, issuer *session.Context, id uuid.UUID) error
}

func (m *mockInviteService) Create(ctx context.Context, issuer *session.Context, email string, role domain.Role) (*domain.Invitation, error) {
	return m.createFunc(ctx, issuer, email, role)
}

func (m *mockInviteService) Lookup(ctx context.Context, token, email string) (*domain.Invitation, error) {
	return m.lookupFunc(ctx, token, email)
}

func (m *mockInviteService) ListPending(ctx context.Context, issuer *session.Context) ([]*domain.Invitation, error) {
	return m.listPendingFunc(ctx, issuer)
}

func (m *mockInviteService) Revoke(ctx context.Context, issuer *session.Context, id uuid.UUID) error {
	return m.revokeFunc(ctx, issuer, id)
}

// ---------------------------------------------------------------------------
// Mock MemberService
// ---------------------------------------------------------------------------

type mockMemberService struct {
	listFunc       func(ctx context.Context, caller *session.Context) ([]*domain.Profile, error)
	changeRoleFunc func(ctx context.Context, caller *session.Context, memberID uuid.UUID, role domain.Role) error
	deactivateFunc func(ctx context.Context, caller *session.Context, memberID uuid.UUID) error
}

func (m *mockMemberService) List(ctx context.Context, caller *session.Context) ([]*domain.Profile, error) {
	return m.listFunc(ctx, caller)
}

func (m *mockMemberService) ChangeRole(ctx context.Context, caller *session.Context, memberID uuid.UUID, role domain.Role) error {
	return m.changeRoleFunc(ctx, caller, memberID, role)
}

func (m *mockMemberService) Deactivate(ctx context.Context, caller *session.Context, memberID uuid.UUID) error {
	return m.deactivateFunc(ctx, caller, memberID)
}

// ---------------------------------------------------------------------------
// Mock ProvisionService
// ---------------------------------------------------------------------------

type mockProvisionService struct {
	ensureProfileFunc func(ctx context.Context, identityID, tenantID uuid.UUID, email, displayName, phone string) (provision.EnsureResult, error)
}

func (m *mockProvisionService) EnsureProfile(ctx context.Context, identityID, tenantID uuid.UUID, email, displayName, phone string) (provision.EnsureResult, error) {
	return m.ensureProfileFunc(ctx, identityID, tenantID, email, displayName, phone)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func pendingInvitation(tenantID uuid.UUID, email string) *domain.Invitation {
	now := time.Now()
	return &domain.Invitation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     email,
		Role:      domain.RoleReceptionist,
		InvitedBy: uuid.New(),
		Token:     "cdinv_deadbeefdeadbeefdeadbeefdeadbeef",
		ExpiresAt: now.Add(72 * time.Hour),
		CreatedAt: now,
	}
}
