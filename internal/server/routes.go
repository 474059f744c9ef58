package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/classdesk/classdesk/internal/api/v1"
	"github.com/classdesk/classdesk/internal/invite"
	"github.com/classdesk/classdesk/internal/members"
	"github.com/classdesk/classdesk/internal/provision"
	"github.com/classdesk/classdesk/internal/store/postgres"
)

func registerPublicRoutes(api huma.API, store *postgres.Store, invites *invite.Service) {
	v1.RegisterSignupRoutes(api, store)
	v1.RegisterInvitationLookupRoutes(api, invites)
}

func registerIdentityRoutes(api huma.API, provisioner *provision.Handler) {
	v1.RegisterProvisionRoutes(api, provisioner)
	v1.RegisterSessionRoutes(api)
}

func registerMemberRoutes(api huma.API, store *postgres.Store, invites *invite.Service, membersSvc *members.Service) {
	v1.RegisterSchoolRoutes(api, store)
	v1.RegisterInvitationRoutes(api, invites)
	v1.RegisterMemberRoutes(api, membersSvc)
	v1.RegisterStudentRoutes(api, store)
	v1.RegisterPaymentRoutes(api, store)
}
