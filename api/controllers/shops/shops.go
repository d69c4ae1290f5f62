package shops

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/beveragedistro/ops-backend/api/controllers/caller"
	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	internalshops "github.com/beveragedistro/ops-backend/internal/shops"
	"github.com/beveragedistro/ops-backend/internal/trips"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type shopBody struct {
	Name           *string  `json:"name"`
	Address        *string  `json:"address"`
	PhoneNumber    *string  `json:"phone_number"`
	WhatsappNumber *string  `json:"whatsapp_number"`
	Lat            *float64 `json:"lat"`
	Long           *float64 `json:"long"`
}

type visitBody struct {
	ShopID uuid.UUID `json:"shopId"`
	TripID uuid.UUID `json:"tripId"`
}

type shopEnvelope struct {
	Message string       `json:"message"`
	Shop    *models.Shop `json:"shop"`
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// List pages shops, or returns one shop when ?id= is present.
func List(svc internalshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("id") {
			id, err := validators.RequireQueryUUID(r, "id", "Shop")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			shop, err := svc.Get(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, shopEnvelope{Message: "Shop found", Shop: shop})
			return
		}

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
		responses.WritePage(w, "Shops found", page)
	}
}

func Create(svc internalshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body shopBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shop, err := svc.Create(r.Context(), principal, internalshops.Input{
			Name:           deref(body.Name),
			Address:        deref(body.Address),
			PhoneNumber:    deref(body.PhoneNumber),
			WhatsappNumber: body.WhatsappNumber,
			Lat:            body.Lat,
			Long:           body.Long,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shopEnvelope{Message: "Shop created successfully", Shop: shop})
	}
}

func Update(svc internalshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Shop")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body shopBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shop, err := svc.Update(r.Context(), principal, id, internalshops.UpdateInput{
			Name:           body.Name,
			Address:        body.Address,
			PhoneNumber:    body.PhoneNumber,
			WhatsappNumber: body.WhatsappNumber,
			Lat:            body.Lat,
			Long:           body.Long,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shopEnvelope{Message: "Shop updated successfully", Shop: shop})
	}
}

func Delete(svc internalshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Shop")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), principal, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Shop deleted successfully")
	}
}

// Visit marks every order for the shop on the trip as visited.
func Visit(svc trips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body visitBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.RecordShopVisit(r.Context(), principal, body.TripID, body.ShopID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Shop visit recorded successfully")
	}
}
