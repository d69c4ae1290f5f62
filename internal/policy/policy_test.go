package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
)

func principal(role enums.Role) Principal {
	return Principal{UserID: uuid.New(), Email: string(role) + "@example.com", Role: role}
}

func TestAuthorizeStaffCannotCreateRoute(t *testing.T) {
	err := Authorize(principal(enums.RoleStaff), ActionCreate, ResourceRoute)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, "Unauthorized: only admin and manager can create routes", typed.Message())

	assert.NoError(t, Authorize(principal(enums.RoleManager), ActionCreate, ResourceRoute))
	assert.NoError(t, Authorize(principal(enums.RoleAdmin), ActionCreate, ResourceRoute))
}

func TestAuthorizeTripCompleteIsStaffOnly(t *testing.T) {
	assert.NoError(t, Authorize(principal(enums.RoleStaff), ActionComplete, ResourceTrip))

	for _, role := range []enums.Role{enums.RoleAdmin, enums.RoleManager} {
		err := Authorize(principal(role), ActionComplete, ResourceTrip)
		require.Error(t, err, role)
		assert.Equal(t, "Unauthorized: only staff can complete trips", pkgerrors.As(err).Message())
	}
}

func TestAuthorizeTripVerifyIsAdminOrManager(t *testing.T) {
	assert.NoError(t, Authorize(principal(enums.RoleAdmin), ActionVerify, ResourceTrip))
	assert.NoError(t, Authorize(principal(enums.RoleManager), ActionVerify, ResourceTrip))

	err := Authorize(principal(enums.RoleStaff), ActionVerify, ResourceTrip)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestAuthorizeMatrix(t *testing.T) {
	cases := []struct {
		resource Resource
		action   Action
		admin    bool
		manager  bool
		staff    bool
	}{
		{ResourceShop, ActionCreate, true, true, false},
		{ResourceShop, ActionDelete, true, false, false},
		{ResourceBatch, ActionDelete, true, true, false},
		{ResourceProduct, ActionDelete, true, false, false},
		{ResourceTrip, ActionVisit, true, true, true},
		{ResourceUser, ActionUpdate, true, true, false},
		{ResourceUser, ActionDelete, true, false, false},
		{ResourceOrder, ActionCreate, true, true, true},
		{ResourceOrder, ActionReturn, true, true, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.admin, Authorize(principal(enums.RoleAdmin), tc.action, tc.resource) == nil, "%s %s admin", tc.action, tc.resource)
		assert.Equal(t, tc.manager, Authorize(principal(enums.RoleManager), tc.action, tc.resource) == nil, "%s %s manager", tc.action, tc.resource)
		assert.Equal(t, tc.staff, Authorize(principal(enums.RoleStaff), tc.action, tc.resource) == nil, "%s %s staff", tc.action, tc.resource)
	}
}

func TestAuthorizeRejectsAnonymousAndUnknownRules(t *testing.T) {
	err := Authorize(Principal{}, ActionCreate, ResourceOrder)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	err = Authorize(principal(enums.RoleAdmin), ActionVerify, ResourceShop)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestCanManageRole(t *testing.T) {
	admin := principal(enums.RoleAdmin)
	manager := principal(enums.RoleManager)

	for _, role := range enums.Roles() {
		assert.NoError(t, CanManageRole(admin, role))
	}
	assert.NoError(t, CanManageRole(manager, enums.RoleStaff))
	assert.NoError(t, CanManageRole(manager, enums.RoleManager))

	err := CanManageRole(manager, enums.RoleAdmin)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	assert.Error(t, CanManageRole(principal(enums.RoleStaff), enums.RoleStaff))
}

func TestAllowedRolesReturnsCopy(t *testing.T) {
	roles := AllowedRoles(ActionDelete, ResourceShop)
	require.Equal(t, []enums.Role{enums.RoleAdmin}, roles)
	roles[0] = enums.RoleStaff
	assert.Equal(t, []enums.Role{enums.RoleAdmin}, AllowedRoles(ActionDelete, ResourceShop))
}
