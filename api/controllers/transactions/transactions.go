package transactions

import (
	"net/http"

	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	"github.com/beveragedistro/ops-backend/internal/ledger"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

// List pages the money ledger, newest first, with optional shopId, type,
// startDate and endDate filters.
func List(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := ledger.ListFilter{Params: params}
		if filter.ShopID, err = validators.OptionalQueryUUID(r, "shopId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := r.URL.Query().Get("type"); raw != "" {
			tt, err := enums.ParseTransactionType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
			filter.Type = &tt
		}
		if filter.StartDate, err = validators.OptionalQueryDate(r, "startDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.EndDate, err = validators.OptionalQueryDate(r, "endDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate"))
			return
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Transactions found", page)
	}
}
