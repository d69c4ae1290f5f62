package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/beveragedistro/ops-backend/api/controllers/caller"
	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	internalorders "github.com/beveragedistro/ops-backend/internal/orders"
	"github.com/beveragedistro/ops-backend/internal/returns"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type lineBody struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type createBody struct {
	ShopID      uuid.UUID       `json:"shopId"`
	TripID      uuid.UUID       `json:"tripId"`
	Products    []lineBody      `json:"products"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Discount    decimal.Decimal `json:"discount"`
	Type        string          `json:"type"`
	PaymentType string          `json:"payment_type"`
}

type confirmBody struct {
	OrderID uuid.UUID `json:"orderId"`
}

type returnBody struct {
	OrderID uuid.UUID `json:"orderId"`
	TripID  uuid.UUID `json:"tripId"`
}

type orderEnvelope struct {
	Message string        `json:"message"`
	Order   *models.Order `json:"order"`
}

type dataEnvelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type returnableEnvelope struct {
	Message string         `json:"message"`
	Orders  []models.Order `json:"orders"`
}

// Create records an order taken on a trip and moves stock in one transaction.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]internalorders.LineInput, 0, len(body.Products))
		for _, p := range body.Products {
			lines = append(lines, internalorders.LineInput{ProductKey: strings.TrimSpace(p.ProductID), Quantity: p.Quantity})
		}
		order, err := svc.Create(r.Context(), principal, internalorders.CreateInput{
			ShopID:      body.ShopID,
			TripID:      body.TripID,
			Lines:       lines,
			TotalAmount: body.TotalAmount,
			Discount:    body.Discount,
			Type:        enums.OrderType(strings.ToLower(strings.TrimSpace(body.Type))),
			PaymentType: enums.PaymentType(strings.ToLower(strings.TrimSpace(body.PaymentType))),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orderEnvelope{Message: "Order created successfully", Order: order})
	}
}

// List pages orders with optional shopId, payment_type, status and type filters.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalorders.ListFilter{Params: params}
		if filter.ShopID, err = validators.OptionalQueryUUID(r, "shopId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		if raw := q.Get("payment_type"); raw != "" {
			pt, err := enums.ParsePaymentType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_type"))
				return
			}
			filter.PaymentType = &pt
		}
		if raw := q.Get("status"); raw != "" {
			st, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filter.Status = &st
		}
		if raw := q.Get("type"); raw != "" {
			ot, err := enums.ParseOrderType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
			filter.Type = &ot
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Orders found", page)
	}
}

// Returnable lists credit orders still eligible for a return.
func Returnable(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := validators.OptionalQueryUUID(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListReturnable(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if rows == nil {
			rows = []models.Order{}
		}
		responses.WriteSuccess(w, returnableEnvelope{Message: "Orders found", Orders: rows})
	}
}

// Confirm settles a credit order in cash.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body confirmBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ConfirmCashPayment(r.Context(), principal, body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dataEnvelope{Message: "Order confirmed successfully", Data: result})
	}
}

// ConfirmReturn closes a credit order by return on the given trip.
func ConfirmReturn(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body returnBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ConfirmReturn(r.Context(), principal, body.OrderID, body.TripID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dataEnvelope{Message: "Order return confirmed successfully", Data: result})
	}
}
