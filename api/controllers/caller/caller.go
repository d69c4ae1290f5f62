package caller

import (
	"net/http"

	"github.com/beveragedistro/ops-backend/api/middleware"
	"github.com/beveragedistro/ops-backend/internal/policy"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
)

// Principal returns the authenticated caller or an UNAUTHORIZED error.
func Principal(r *http.Request) (policy.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return policy.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
	}
	return p, nil
}
