// Package deliveryroutes manages the ordered shop lists that trips follow.
package deliveryroutes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages delivery routes.
type Service interface {
	Create(ctx context.Context, principal policy.Principal, input Input) (*models.Route, error)
	Update(ctx context.Context, principal policy.Principal, id uuid.UUID, input Input) (*models.Route, error)
	Delete(ctx context.Context, principal policy.Principal, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) (pagination.Page[models.Route], error)
}

// Stop places a shop on the route.
type Stop struct {
	ShopID        uuid.UUID
	SequenceOrder int
}

// Input carries a route name and its stops.
type Input struct {
	Name  string
	Shops []Stop
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService wires the route service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("routes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, principal policy.Principal, input Input) (*models.Route, error) {
	if err := policy.Authorize(principal, policy.ActionCreate, policy.ResourceRoute); err != nil {
		return nil, err
	}
	name, stops, err := input.normalize()
	if err != nil {
		return nil, err
	}

	var out *models.Route
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := checkShops(ctx, repo, stops); err != nil {
			return err
		}
		route := &models.Route{Name: name, RouteShops: stops}
		if err := repo.Create(ctx, route); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create route")
		}
		out, err = repo.FindDetailed(ctx, route.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload route")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "route.created", out)
	return out, nil
}

// Update renames the route and replaces its stops in one transaction.
func (s *service) Update(ctx context.Context, principal policy.Principal, id uuid.UUID, input Input) (*models.Route, error) {
	if err := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceRoute); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Route ID is required")
	}
	name, stops, err := input.normalize()
	if err != nil {
		return nil, err
	}

	var out *models.Route
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return lookupErr(err)
		}
		if err := checkShops(ctx, repo, stops); err != nil {
			return err
		}
		if err := repo.Rename(ctx, id, name); err != nil {
			return lookupErr(err)
		}
		if err := repo.ReplaceShops(ctx, id, stops); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "replace route shops")
		}
		out, err = repo.FindDetailed(ctx, id)
		if err != nil {
			return lookupErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "route.updated", out)
	return out, nil
}

func (s *service) Delete(ctx context.Context, principal policy.Principal, id uuid.UUID) error {
	if err := policy.Authorize(principal, policy.ActionDelete, policy.ResourceRoute); err != nil {
		return err
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Route ID is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "Route is still used by trips")
			}
			return lookupErr(err)
		}
		return nil
	})
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Route], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[models.Route]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list routes")
	}
	return pagination.NewPage(rows, params, total), nil
}

func (in Input) normalize() (string, []models.RouteShop, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "Route name is required")
	}
	if len(in.Shops) == 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "At least one shop is required for the route")
	}
	stops := make([]models.RouteShop, 0, len(in.Shops))
	for i, stop := range in.Shops {
		if stop.ShopID == uuid.Nil {
			return "", nil, pkgerrors.Newf(pkgerrors.CodeValidation, "shops[%d].shop_id is required", i)
		}
		seq := stop.SequenceOrder
		if seq <= 0 {
			seq = i + 1
		}
		stops = append(stops, models.RouteShop{ShopID: stop.ShopID, SequenceOrder: seq})
	}
	return name, stops, nil
}

func checkShops(ctx context.Context, repo Repository, stops []models.RouteShop) error {
	ids := make([]uuid.UUID, len(stops))
	for i, stop := range stops {
		ids[i] = stop.ShopID
	}
	missing, err := repo.MissingShops(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "check route shops")
	}
	if len(missing) > 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "Shop not found: %s", missing[0])
	}
	return nil
}

func (s *service) log(ctx context.Context, event string, route *models.Route) {
	if s.logg == nil || route == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"route_id": route.ID.String(),
		"shops":    len(route.RouteShops),
	}), event)
}

func lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Route not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "route storage")
}
