package products

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/beveragedistro/ops-backend/api/controllers/caller"
	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	internalproducts "github.com/beveragedistro/ops-backend/internal/products"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type productBody struct {
	Key                 string           `json:"key"`
	Name                *string          `json:"name"`
	UOM                 *int             `json:"uom"`
	DefaultLabeledPrice *decimal.Decimal `json:"default_labeled_price"`
	DefaultCost         *decimal.Decimal `json:"default_cost"`
	Status              *string          `json:"status"`
}

type productEnvelope struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

func parseStatus(raw *string) (*enums.ProductStatus, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	st, err := enums.ParseProductStatus(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &st, nil
}

// List pages products, or returns one product when ?key= is present.
func List(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := validators.SanitizeString(r.URL.Query().Get("key"), 64); key != "" {
			product, err := svc.Get(r.Context(), key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, productEnvelope{Message: "Product found", Product: product})
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalproducts.ListFilter{Params: params}
		if raw := r.URL.Query().Get("status"); raw != "" {
			st, err := parseStatus(&raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.Status = st.String()
		}
		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Products found", page)
	}
}

func Create(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalproducts.Input{Key: body.Key}
		if body.Name != nil {
			input.Name = *body.Name
		}
		if body.UOM != nil {
			input.UOM = *body.UOM
		}
		if body.DefaultLabeledPrice != nil {
			input.DefaultLabeledPrice = *body.DefaultLabeledPrice
		}
		if body.DefaultCost != nil {
			input.DefaultCost = *body.DefaultCost
		}
		if status != nil {
			input.Status = *status
		}

		product, err := svc.Create(r.Context(), principal, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, productEnvelope{Message: "Product created successfully", Product: product})
	}
}

// Update edits catalog fields. Stock is not writable here.
func Update(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key, err := validators.RequireQueryString(r, "key", "Product key is required")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), principal, key, internalproducts.UpdateInput{
			Name:                body.Name,
			UOM:                 body.UOM,
			DefaultLabeledPrice: body.DefaultLabeledPrice,
			DefaultCost:         body.DefaultCost,
			Status:              status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productEnvelope{Message: "Product updated successfully", Product: product})
	}
}

func Delete(svc internalproducts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key, err := validators.RequireQueryString(r, "key", "Product key is required")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), principal, key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Product deleted successfully")
	}
}
