package batches

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/beveragedistro/ops-backend/api/controllers/caller"
	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	internalbatches "github.com/beveragedistro/ops-backend/internal/batches"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type batchBody struct {
	ProductKey        string           `json:"product_key"`
	UOM               *int             `json:"uom"`
	Packs             *int             `json:"packs"`
	Loose             *int             `json:"loose"`
	MFD               string           `json:"mfd"`
	EXP               string           `json:"exp"`
	Cost              *decimal.Decimal `json:"cost"`
	LabeledPrice      *decimal.Decimal `json:"labeled_price"`
	PurchaseInvoiceID string           `json:"purchase_invoice_id"`
	AddedBy           string           `json:"addedBy"`
	TotalQuantity     *int64           `json:"totalQuantity"`
}

type resultEnvelope struct {
	Message string `json:"message"`
	*internalbatches.Result
}

func (b batchBody) input(defaultAddedBy string) (internalbatches.Input, error) {
	mfd, err := validators.ParseDate(b.MFD, "mfd")
	if err != nil {
		return internalbatches.Input{}, err
	}
	exp, err := validators.ParseDate(b.EXP, "exp")
	if err != nil {
		return internalbatches.Input{}, err
	}
	addedBy := strings.TrimSpace(b.AddedBy)
	if addedBy == "" {
		addedBy = defaultAddedBy
	}
	return internalbatches.Input{
		ProductKey:        b.ProductKey,
		UOM:               b.UOM,
		Packs:             b.Packs,
		Loose:             b.Loose,
		MFD:               mfd,
		EXP:               exp,
		Cost:              b.Cost,
		LabeledPrice:      b.LabeledPrice,
		PurchaseInvoiceID: b.PurchaseInvoiceID,
		AddedBy:           addedBy,
		TotalQuantity:     b.TotalQuantity,
	}, nil
}

func batchID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("batch_id"))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "Invalid request")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "Invalid request").WithDetails(map[string]any{"field": "batch_id"})
	}
	return id, nil
}

func List(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Batches found", page)
	}
}

// Create receives a batch and adds its units to product stock.
func Create(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body batchBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input(principal.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), principal, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resultEnvelope{Message: "Batch created and stock updated", Result: result})
	}
}

// Update rewrites a batch and applies the net stock change.
func Update(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := batchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body batchBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.input(principal.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Update(r.Context(), principal, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resultEnvelope{Message: "Batch and stock updated successfully", Result: result})
	}
}

func Delete(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := batchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Delete(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resultEnvelope{Message: "Batch deleted and stock updated", Result: result})
	}
}
