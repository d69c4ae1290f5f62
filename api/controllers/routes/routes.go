package routes

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/beveragedistro/ops-backend/api/controllers/caller"
	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	"github.com/beveragedistro/ops-backend/internal/deliveryroutes"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type stopBody struct {
	ShopID        uuid.UUID `json:"shop_id"`
	SequenceOrder int       `json:"sequence_order"`
}

type routeBody struct {
	Name  string     `json:"name"`
	Shops []stopBody `json:"shops"`
}

func (b routeBody) input() deliveryroutes.Input {
	stops := make([]deliveryroutes.Stop, 0, len(b.Shops))
	for _, s := range b.Shops {
		stops = append(stops, deliveryroutes.Stop{ShopID: s.ShopID, SequenceOrder: s.SequenceOrder})
	}
	return deliveryroutes.Input{Name: b.Name, Shops: stops}
}

type routeEnvelope struct {
	Message string        `json:"message"`
	Route   *models.Route `json:"route"`
}

func List(svc deliveryroutes.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WritePage(w, "Routes found", page)
	}
}

func Create(svc deliveryroutes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body routeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		route, err := svc.Create(r.Context(), principal, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, routeEnvelope{Message: "Route created successfully", Route: route})
	}
}

// Update renames the route and replaces its stops.
func Update(svc deliveryroutes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Route")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body routeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		route, err := svc.Update(r.Context(), principal, id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, routeEnvelope{Message: "Route updated successfully", Route: route})
	}
}

func Delete(svc deliveryroutes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Route")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), principal, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Route deleted successfully")
	}
}
