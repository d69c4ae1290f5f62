// Package policy is the single role-based access evaluator for every
// mutating operation.
package policy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
)

// Principal is the authenticated caller, built from a verified access token.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
}

// Valid reports whether the principal carries an identity and a known role.
func (p Principal) Valid() bool {
	return strings.TrimSpace(p.Email) != "" && p.Role.IsValid()
}

type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionComplete Action = "complete"
	ActionVerify   Action = "verify"
	ActionVisit    Action = "visit"
	ActionConfirm  Action = "confirm"
	ActionReturn   Action = "return"
)

type Resource string

const (
	ResourceShop    Resource = "shop"
	ResourceRoute   Resource = "route"
	ResourceBatch   Resource = "batch"
	ResourceProduct Resource = "product"
	ResourceTrip    Resource = "trip"
	ResourceUser    Resource = "user"
	ResourceOrder   Resource = "order"
)

var plurals = map[Resource]string{
	ResourceShop:    "shops",
	ResourceRoute:   "routes",
	ResourceBatch:   "batches",
	ResourceProduct: "products",
	ResourceTrip:    "trips",
	ResourceUser:    "users",
	ResourceOrder:   "orders",
}

type rule struct {
	resource Resource
	action   Action
}

var (
	everyone        = []enums.Role{enums.RoleAdmin, enums.RoleManager, enums.RoleStaff}
	adminAndManager = []enums.Role{enums.RoleAdmin, enums.RoleManager}
	adminOnly       = []enums.Role{enums.RoleAdmin}
	staffOnly       = []enums.Role{enums.RoleStaff}
)

var rules = map[rule][]enums.Role{
	{ResourceShop, ActionCreate}: adminAndManager,
	{ResourceShop, ActionUpdate}: adminAndManager,
	{ResourceShop, ActionDelete}: adminOnly,

	{ResourceRoute, ActionCreate}: adminAndManager,
	{ResourceRoute, ActionUpdate}: adminAndManager,
	{ResourceRoute, ActionDelete}: adminOnly,

	{ResourceBatch, ActionCreate}: adminAndManager,
	{ResourceBatch, ActionUpdate}: adminAndManager,
	{ResourceBatch, ActionDelete}: adminAndManager,

	{ResourceProduct, ActionCreate}: adminAndManager,
	{ResourceProduct, ActionUpdate}: adminAndManager,
	{ResourceProduct, ActionDelete}: adminOnly,

	{ResourceTrip, ActionCreate}:   adminAndManager,
	{ResourceTrip, ActionUpdate}:   adminAndManager,
	{ResourceTrip, ActionDelete}:   adminOnly,
	{ResourceTrip, ActionComplete}: staffOnly,
	{ResourceTrip, ActionVerify}:   adminAndManager,
	{ResourceTrip, ActionVisit}:    everyone,

	{ResourceUser, ActionCreate}: adminAndManager,
	{ResourceUser, ActionUpdate}: adminAndManager,
	{ResourceUser, ActionDelete}: adminOnly,

	{ResourceOrder, ActionCreate}:  everyone,
	{ResourceOrder, ActionConfirm}: everyone,
	{ResourceOrder, ActionReturn}:  everyone,
}

// AllowedRoles lists the roles permitted to perform action on resource.
func AllowedRoles(action Action, resource Resource) []enums.Role {
	roles := rules[rule{resource, action}]
	out := make([]enums.Role, len(roles))
	copy(out, roles)
	return out
}

// Authorize returns nil when the principal may act, otherwise an UNAUTHORIZED
// error naming the roles that may.
func Authorize(p Principal, action Action, resource Resource) error {
	if !p.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: authentication required")
	}
	allowed, ok := rules[rule{resource, action}]
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeUnauthorized, "Unauthorized: %s %s is not permitted", action, plural(resource))
	}
	for _, role := range allowed {
		if role == p.Role {
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeUnauthorized, "Unauthorized: only %s can %s %s", joinRoles(allowed), action, plural(resource))
}

// assignable is the set of roles each actor may grant or manage.
var assignable = map[enums.Role][]enums.Role{
	enums.RoleAdmin:   {enums.RoleAdmin, enums.RoleManager, enums.RoleStaff},
	enums.RoleManager: {enums.RoleManager, enums.RoleStaff},
}

// CanManageRole returns a FORBIDDEN error when the principal may not create,
// edit or assign a user holding target.
func CanManageRole(p Principal, target enums.Role) error {
	for _, role := range assignable[p.Role] {
		if role == target {
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeForbidden, "Forbidden: %s cannot manage %s users", p.Role, target)
}

func plural(r Resource) string {
	if p, ok := plurals[r]; ok {
		return p
	}
	return string(r)
}

func joinRoles(roles []enums.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	switch len(names) {
	case 0:
		return "nobody"
	case 1:
		return names[0]
	default:
		return fmt.Sprintf("%s and %s", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
	}
}
