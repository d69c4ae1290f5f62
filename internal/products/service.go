// Package products manages the product catalog. Stock levels are read here but
// only ever written by the stock ledger.
package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages products.
type Service interface {
	Create(ctx context.Context, principal policy.Principal, input Input) (*models.Product, error)
	Update(ctx context.Context, principal policy.Principal, key string, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, principal policy.Principal, key string) error
	Get(ctx context.Context, key string) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) (pagination.Page[models.Product], error)
}

// Input carries a new product. New products start with zero stock.
type Input struct {
	Key                 string
	Name                string
	UOM                 int
	DefaultLabeledPrice decimal.Decimal
	DefaultCost         decimal.Decimal
	Status              enums.ProductStatus
}

// UpdateInput carries product changes; nil fields are left alone.
type UpdateInput struct {
	Name                *string
	UOM                 *int
	DefaultLabeledPrice *decimal.Decimal
	DefaultCost         *decimal.Decimal
	Status              *enums.ProductStatus
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the product service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, principal policy.Principal, input Input) (*models.Product, error) {
	if err := policy.Authorize(principal, policy.ActionCreate, policy.ResourceProduct); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(input.Key)
	name := strings.TrimSpace(input.Name)
	if key == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields: key or name")
	}
	uom := input.UOM
	if uom == 0 {
		uom = 1
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusActive
	}
	if err := validate(&uom, &input.DefaultLabeledPrice, &input.DefaultCost, &status); err != nil {
		return nil, err
	}

	product := &models.Product{
		Key:                 key,
		Name:                name,
		UOM:                 uom,
		DefaultLabeledPrice: input.DefaultLabeledPrice,
		DefaultCost:         input.DefaultCost,
		Status:              status,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "Product %s already exists", key)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, principal policy.Principal, key string, input UpdateInput) (*models.Product, error) {
	if err := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceProduct); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Product key is required")
	}
	if err := validate(input.UOM, input.DefaultLabeledPrice, input.DefaultCost, input.Status); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		fields["name"] = name
	}
	if input.UOM != nil {
		fields["uom"] = *input.UOM
	}
	if input.DefaultLabeledPrice != nil {
		fields["default_labeled_price"] = *input.DefaultLabeledPrice
	}
	if input.DefaultCost != nil {
		fields["default_cost"] = *input.DefaultCost
	}
	if input.Status != nil {
		fields["status"] = *input.Status
	}

	var out *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if len(fields) > 0 {
			if err := repo.Update(ctx, key, fields); err != nil {
				return lookupErr(err)
			}
		}
		product, err := repo.FindByKey(ctx, key)
		if err != nil {
			return lookupErr(err)
		}
		out = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete refuses products still referenced by batches or order lines.
func (s *service) Delete(ctx context.Context, principal policy.Principal, key string) error {
	if err := policy.Authorize(principal, policy.ActionDelete, policy.ResourceProduct); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Product key is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refs, err := repo.CountReferences(ctx, key)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count product references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "Product is referenced by batches or orders").
				WithDetails(map[string]any{"references": refs})
		}
		if err := repo.Delete(ctx, key); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "Product is referenced by batches or orders")
			}
			return lookupErr(err)
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, key string) (*models.Product, error) {
	product, err := s.repo.FindByKey(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, lookupErr(err)
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Product], error) {
	if filter.Status != "" && !enums.ProductStatus(filter.Status).IsValid() {
		return pagination.Page[models.Product]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", filter.Status)
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list products")
	}
	return pagination.NewPage(rows, filter.Params, total), nil
}

func validate(uom *int, labeled, cost *decimal.Decimal, status *enums.ProductStatus) error {
	if uom != nil && *uom <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "uom must be positive")
	}
	if labeled != nil && labeled.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "default_labeled_price must not be negative")
	}
	if cost != nil && cost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "default_cost must not be negative")
	}
	if status != nil && !status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *status)
	}
	return nil
}

func lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "product storage")
}
