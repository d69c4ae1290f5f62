package trips

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beveragedistro/ops-backend/api/controllers/caller"
	"github.com/beveragedistro/ops-backend/api/responses"
	"github.com/beveragedistro/ops-backend/api/validators"
	internaltrips "github.com/beveragedistro/ops-backend/internal/trips"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

type orderLinkBody struct {
	OrderID       uuid.UUID `json:"order_id"`
	SequenceOrder int       `json:"sequence_order"`
}

type tripBody struct {
	RouteID    *uuid.UUID       `json:"route_id"`
	AssignedTo *string          `json:"assigned_to"`
	TripDate   *string          `json:"trip_date"`
	Orders     *[]orderLinkBody `json:"orders"`
}

type completeBody struct {
	IsCompleted *bool `json:"is_completed"`
}

type verifyBody struct {
	IsVerified *bool `json:"is_verified"`
}

type tripEnvelope struct {
	Message string       `json:"message"`
	Trip    *models.Trip `json:"trip"`
}

func links(in []orderLinkBody) []internaltrips.OrderLink {
	out := make([]internaltrips.OrderLink, 0, len(in))
	for _, o := range in {
		out = append(out, internaltrips.OrderLink{OrderID: o.OrderID, SequenceOrder: o.SequenceOrder})
	}
	return out
}

// List pages trips, optionally narrowed to one assignee via ?userId=.
func List(svc internaltrips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), internaltrips.ListFilter{
			Params:     params,
			AssignedTo: strings.TrimSpace(r.URL.Query().Get("userId")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Trips found", page)
	}
}

// Staff lists the caller's own trips with per-shop visit state.
func Staff(svc internaltrips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListForStaff(r.Context(), principal, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, "Trips found", page)
	}
}

func Create(svc internaltrips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body tripBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tripDate, err := parseTripDate(body.TripDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internaltrips.CreateInput{TripDate: tripDate}
		if body.RouteID != nil {
			input.RouteID = *body.RouteID
		}
		if body.AssignedTo != nil {
			input.AssignedTo = *body.AssignedTo
		}
		if body.Orders != nil {
			input.Orders = links(*body.Orders)
		}

		trip, err := svc.Create(r.Context(), principal, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tripEnvelope{Message: "Trip created successfully", Trip: trip})
	}
}

// Update changes the provided fields. A present orders array replaces every
// trip order.
func Update(svc internaltrips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Trip")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body tripBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tripDate, err := parseTripDate(body.TripDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internaltrips.UpdateInput{RouteID: body.RouteID, AssignedTo: body.AssignedTo, TripDate: tripDate}
		if body.Orders != nil {
			l := links(*body.Orders)
			input.Orders = &l
		}

		trip, err := svc.Update(r.Context(), principal, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tripEnvelope{Message: "Trip updated successfully", Trip: trip})
	}
}

func Delete(svc internaltrips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Trip")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), principal, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Trip deleted successfully")
	}
}

// Complete lets the assigned staff member end or fail a trip.
func Complete(svc internaltrips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Trip")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body completeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil || body.IsCompleted == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "is_completed must be a boolean value"))
			return
		}
		trip, err := svc.SetCompleted(r.Context(), principal, id, *body.IsCompleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome := "Failed"
		if *body.IsCompleted {
			outcome = "Ended"
		}
		responses.WriteSuccess(w, tripEnvelope{Message: fmt.Sprintf("Trip %s successfully", outcome), Trip: trip})
	}
}

func Verify(svc internaltrips.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := caller.Principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.RequireQueryUUID(r, "id", "Trip")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body verifyBody
		if err := validators.DecodeJSONBody(r, &body); err != nil || body.IsVerified == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "is_verified must be a boolean value"))
			return
		}
		trip, err := svc.SetVerified(r.Context(), principal, id, *body.IsVerified)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome := "unverified"
		if *body.IsVerified {
			outcome = "verified"
		}
		responses.WriteSuccess(w, tripEnvelope{Message: fmt.Sprintf("Trip %s successfully", outcome), Trip: trip})
	}
}

func parseTripDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	return validators.ParseDate(*raw, "trip_date")
}
