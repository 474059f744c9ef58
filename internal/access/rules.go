// Package access gates every operation on tenant-owned entities. All checks
// are generated from one rule table so there is a single place to tighten a
// policy, never a scatter of ad hoc overrides.
package access

import (
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/session"
)

// Class names a group of entities sharing one access rule.
type Class string

const (
	ClassStudents    Class = "students"
	ClassPayments    Class = "payments"
	ClassProfiles    Class = "profiles"
	ClassMemberAdmin Class = "member_admin"
	ClassInvitations Class = "invitations"
	ClassTenant      Class = "tenant"
)

// Rule is one row of the policy table: tenant scoping plus an optional role
// restriction. An empty role set means any active role of the owning tenant.
type Rule struct {
	TenantMatch bool
	Roles       []domain.Role
}

// rules is the single authoritative policy table. Financial records
// (payments) and member administration are role-restricted; everything else
// only requires active membership in the owning school.
var rules = map[Class]Rule{
	ClassStudents:    {TenantMatch: true},
	ClassPayments:    {TenantMatch: true, Roles: []domain.Role{domain.RoleOwner, domain.RoleManager}},
	ClassProfiles:    {TenantMatch: true},
	ClassMemberAdmin: {TenantMatch: true, Roles: []domain.Role{domain.RoleOwner}},
	ClassInvitations: {TenantMatch: true, Roles: []domain.Role{domain.RoleOwner, domain.RoleManager}},
	ClassTenant:      {TenantMatch: true, Roles: []domain.Role{domain.RoleOwner}},
}

// Authorize allows the operation only if the caller's resolved session
// matches the entity's tenant and satisfies the class's role restriction.
// Every failure is the same ErrAccessDenied: callers cannot tell a foreign
// tenant's entity from one that does not exist.
//
// Tenant creation and first-owner provisioning are the only writes reachable
// without a session; they never pass through here (the bootstrap exception).
func Authorize(sc *session.Context, entityTenantID uuid.UUID, class Class) error {
	if sc == nil || !sc.Active {
		return domain.ErrAccessDenied
	}

	rule, ok := rules[class]
	if !ok {
		// Unknown classes are closed, not open.
		return domain.ErrAccessDenied
	}

	if rule.TenantMatch && sc.TenantID != entityTenantID {
		return domain.ErrAccessDenied
	}

	if len(rule.Roles) > 0 && !roleAllowed(sc.Role, rule.Roles) {
		return domain.ErrAccessDenied
	}

	return nil
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
