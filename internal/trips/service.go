package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// LinkedOrderSequence is the sequence_order given to every order linked into a
// trip at the moment it is taken.
const LinkedOrderSequence = 1

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service coordinates trips, their orders and the visit/completion flags.
type Service interface {
	Create(ctx context.Context, principal policy.Principal, input CreateInput) (*models.Trip, error)
	Update(ctx context.Context, principal policy.Principal, id uuid.UUID, input UpdateInput) (*models.Trip, error)
	Delete(ctx context.Context, principal policy.Principal, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) (pagination.Page[models.Trip], error)
	ListForStaff(ctx context.Context, principal policy.Principal, params pagination.Params) (pagination.Page[StaffTrip], error)
	SetCompleted(ctx context.Context, principal policy.Principal, id uuid.UUID, completed bool) (*models.Trip, error)
	SetVerified(ctx context.Context, principal policy.Principal, id uuid.UUID, verified bool) (*models.Trip, error)
	RecordShopVisit(ctx context.Context, principal policy.Principal, tripID, shopID uuid.UUID) (int64, error)
	LinkOrder(ctx context.Context, tx *gorm.DB, tripID uuid.UUID, order *models.Order) (*models.TripOrder, error)
}

// OrderLink places an existing order on a trip.
type OrderLink struct {
	OrderID       uuid.UUID
	SequenceOrder int
}

// CreateInput carries a new trip.
type CreateInput struct {
	RouteID    uuid.UUID
	AssignedTo string
	TripDate   *time.Time
	Orders     []OrderLink
}

// UpdateInput carries trip changes. Nil fields are left alone; a non-nil
// Orders replaces every trip order.
type UpdateInput struct {
	RouteID    *uuid.UUID
	AssignedTo *string
	TripDate   *time.Time
	Orders     *[]OrderLink
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the trip coordinator.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("trips repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, principal policy.Principal, input CreateInput) (*models.Trip, error) {
	if err := policy.Authorize(principal, policy.ActionCreate, policy.ResourceTrip); err != nil {
		return nil, err
	}
	assignedTo := strings.ToLower(strings.TrimSpace(input.AssignedTo))
	if input.RouteID == uuid.Nil || assignedTo == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Route and assigned user are required")
	}

	tripDate := s.now().UTC()
	if input.TripDate != nil {
		tripDate = input.TripDate.UTC()
	}
	trip := &models.Trip{RouteID: input.RouteID, AssignedTo: assignedTo, TripDate: tripDate}

	var out *models.Trip
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureRoute(ctx, repo, input.RouteID); err != nil {
			return err
		}
		if err := repo.Create(ctx, trip); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create trip")
		}
		if err := s.replaceOrders(ctx, repo, trip, input.Orders); err != nil {
			return err
		}
		loaded, err := repo.FindDetailed(ctx, trip.ID)
		if err != nil {
			return tripLookupErr(err)
		}
		out = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.info(ctx, "trip.created", out.ID, map[string]any{"assigned_to": out.AssignedTo})
	return out, nil
}

func (s *service) Update(ctx context.Context, principal policy.Principal, id uuid.UUID, input UpdateInput) (*models.Trip, error) {
	if err := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceTrip); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Trip ID is required")
	}

	var out *models.Trip
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		trip, err := repo.FindByID(ctx, id)
		if err != nil {
			return tripLookupErr(err)
		}

		fields := map[string]any{}
		if input.RouteID != nil {
			if *input.RouteID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "route_id must not be empty")
			}
			if err := ensureRoute(ctx, repo, *input.RouteID); err != nil {
				return err
			}
			fields["route_id"] = *input.RouteID
			trip.RouteID = *input.RouteID
		}
		if input.AssignedTo != nil {
			assignedTo := strings.ToLower(strings.TrimSpace(*input.AssignedTo))
			if assignedTo == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "assigned_to must not be empty")
			}
			fields["assigned_to"] = assignedTo
		}
		if input.TripDate != nil {
			fields["trip_date"] = input.TripDate.UTC()
		}
		if len(fields) > 0 {
			if err := repo.Update(ctx, id, fields); err != nil {
				return tripLookupErr(err)
			}
		}

		switch {
		case input.Orders != nil:
			if err := repo.DeleteTripOrders(ctx, id); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete trip orders")
			}
			if err := s.replaceOrders(ctx, repo, trip, *input.Orders); err != nil {
				return err
			}
		case input.RouteID != nil:
			if err := repo.MoveTripOrders(ctx, id, trip.RouteID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "move trip orders")
			}
		}

		loaded, err := repo.FindDetailed(ctx, id)
		if err != nil {
			return tripLookupErr(err)
		}
		out = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.info(ctx, "trip.updated", id, nil)
	return out, nil
}

func (s *service) Delete(ctx context.Context, principal policy.Principal, id uuid.UUID) error {
	if err := policy.Authorize(principal, policy.ActionDelete, policy.ResourceTrip); err != nil {
		return err
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Trip ID is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return tripLookupErr(err)
		}
		if err := repo.DeleteTripOrders(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete trip orders")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return tripLookupErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.info(ctx, "trip.deleted", id, nil)
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Trip], error) {
	filter.AssignedTo = strings.ToLower(strings.TrimSpace(filter.AssignedTo))
	filter.WithShops = false
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.Trip]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list trips")
	}
	return pagination.NewPage(rows, filter.Params, total), nil
}

// ListForStaff returns the principal's own trips with each route shop marked
// visited when one of this trip's orders for that shop was visited.
func (s *service) ListForStaff(ctx context.Context, principal policy.Principal, params pagination.Params) (pagination.Page[StaffTrip], error) {
	if !principal.Valid() {
		return pagination.Page[StaffTrip]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized: authentication required")
	}
	rows, total, err := s.repo.List(ctx, ListFilter{
		Params:     params,
		AssignedTo: strings.ToLower(principal.Email),
		WithShops:  true,
	})
	if err != nil {
		return pagination.Page[StaffTrip]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list staff trips")
	}
	return pagination.Map(pagination.NewPage(rows, params, total), newStaffTrip), nil
}

// SetCompleted ends (true) or fails (false) a trip.
func (s *service) SetCompleted(ctx context.Context, principal policy.Principal, id uuid.UUID, completed bool) (*models.Trip, error) {
	if err := policy.Authorize(principal, policy.ActionComplete, policy.ResourceTrip); err != nil {
		return nil, err
	}
	return s.setFlag(ctx, principal, id, "is_completed", completed, "trip.completed")
}

// SetVerified toggles verification. is_completed is left untouched.
func (s *service) SetVerified(ctx context.Context, principal policy.Principal, id uuid.UUID, verified bool) (*models.Trip, error) {
	if err := policy.Authorize(principal, policy.ActionVerify, policy.ResourceTrip); err != nil {
		return nil, err
	}
	return s.setFlag(ctx, principal, id, "is_verified", verified, "trip.verified")
}

func (s *service) setFlag(ctx context.Context, principal policy.Principal, id uuid.UUID, column string, value bool, event string) (*models.Trip, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Trip ID is required")
	}
	var verifiedBy *string
	if value {
		email := principal.Email
		verifiedBy = &email
	}

	var out *models.Trip
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, id, map[string]any{
			column:        value,
			"verified_by": verifiedBy,
		}); err != nil {
			return tripLookupErr(err)
		}
		loaded, err := repo.FindDetailed(ctx, id)
		if err != nil {
			return tripLookupErr(err)
		}
		out = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.info(ctx, event, id, map[string]any{column: value})
	return out, nil
}

// RecordShopVisit marks the trip's orders for the shop as visited and returns
// how many trip orders changed.
func (s *service) RecordShopVisit(ctx context.Context, principal policy.Principal, tripID, shopID uuid.UUID) (int64, error) {
	if err := policy.Authorize(principal, policy.ActionVisit, policy.ResourceTrip); err != nil {
		return 0, err
	}
	if tripID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "No active trip found for this shop")
	}
	if shopID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "shopId is required")
	}

	var affected int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).MarkVisited(ctx, tripID, shopID, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "record shop visit")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Shop not found in the active trip")
		}
		affected = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.info(ctx, "trip.shop_visited", tripID, map[string]any{"shop_id": shopID.String(), "trip_orders": affected})
	return affected, nil
}

// LinkOrder attaches order to the trip inside the caller's transaction, at
// LinkedOrderSequence.
func (s *service) LinkOrder(ctx context.Context, tx *gorm.DB, tripID uuid.UUID, order *models.Order) (*models.TripOrder, error) {
	if order == nil || order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	repo := s.repo.WithTx(tx)
	trip, err := repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, tripLookupErr(err)
	}

	routeID := trip.RouteID
	shopID := order.ShopID
	row := models.TripOrder{
		TripID:        trip.ID,
		OrderID:       order.ID,
		RouteID:       &routeID,
		ShopID:        &shopID,
		SequenceOrder: LinkedOrderSequence,
	}
	if err := repo.CreateTripOrders(ctx, []models.TripOrder{row}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "link order to trip")
	}
	return &row, nil
}

func (s *service) replaceOrders(ctx context.Context, repo Repository, trip *models.Trip, links []OrderLink) error {
	if len(links) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(links))
	for i, link := range links {
		if link.OrderID == uuid.Nil {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "orders[%d]: order_id is required", i)
		}
		ids = append(ids, link.OrderID)
	}
	shops, err := repo.OrderShops(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load trip orders")
	}

	routeID := trip.RouteID
	rows := make([]models.TripOrder, 0, len(links))
	for _, link := range links {
		shopID, ok := shops[link.OrderID]
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "Order not found: %s", link.OrderID)
		}
		rows = append(rows, models.TripOrder{
			TripID:        trip.ID,
			OrderID:       link.OrderID,
			RouteID:       &routeID,
			ShopID:        &shopID,
			SequenceOrder: link.SequenceOrder,
		})
	}
	if err := repo.CreateTripOrders(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create trip orders")
	}
	return nil
}

func ensureRoute(ctx context.Context, repo Repository, routeID uuid.UUID) error {
	ok, err := repo.RouteExists(ctx, routeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load route")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Route not found")
	}
	return nil
}

func tripLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Trip not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load trip")
}

func (s *service) info(ctx context.Context, event string, tripID uuid.UUID, fields map[string]any) {
	if s.logg == nil {
		return
	}
	all := map[string]any{"trip_id": tripID.String()}
	for k, v := range fields {
		all[k] = v
	}
	s.logg.Info(s.logg.WithFields(ctx, all), event)
}
