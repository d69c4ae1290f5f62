package batches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/internal/stock"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages batches and keeps product stock in step with them.
type Service interface {
	Create(ctx context.Context, principal policy.Principal, input Input) (*Result, error)
	Update(ctx context.Context, principal policy.Principal, batchID int64, input Input) (*Result, error)
	Delete(ctx context.Context, principal policy.Principal, batchID int64) (*Result, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[Summary], error)
}

// Input carries the batch fields accepted on create and update. Counts are
// pointers so an explicit zero can be told apart from a missing field.
type Input struct {
	ProductKey        string
	UOM               *int
	Packs             *int
	Loose             *int
	MFD               *time.Time
	EXP               *time.Time
	Cost              *decimal.Decimal
	LabeledPrice      *decimal.Decimal
	PurchaseInvoiceID string
	AddedBy           string
	TotalQuantity     *int64
}

// Result pairs the affected batch with the product after its stock moved.
type Result struct {
	Batch   *models.Batch   `json:"batch"`
	Product *models.Product `json:"product"`
}

// Summary is a listed batch flattened with its product name and uom.
type Summary struct {
	models.Batch
	ProductName string `json:"product_name"`
	ProductUOM  int    `json:"product_uom"`
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger stock.Adjuster
	logg   *logger.Logger
}

// NewService wires the batch manager.
func NewService(repo Repository, tx txRunner, ledger stock.Adjuster, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batches repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, principal policy.Principal, input Input) (*Result, error) {
	if err := policy.Authorize(principal, policy.ActionCreate, policy.ResourceBatch); err != nil {
		return nil, err
	}
	batch, total, err := input.build()
	if err != nil {
		return nil, err
	}

	var result Result
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, batch); err != nil {
			return writeErr(err, batch.ProductKey, "create batch")
		}
		product, err := s.ledger.Adjust(ctx, tx, batch.ProductKey, total, stock.ReasonBatchCreated)
		if err != nil {
			return err
		}
		result = Result{Batch: batch, Product: product}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "batch.created", batch, total)
	return &result, nil
}

func (s *service) Update(ctx context.Context, principal policy.Principal, batchID int64, input Input) (*Result, error) {
	if err := policy.Authorize(principal, policy.ActionUpdate, policy.ResourceBatch); err != nil {
		return nil, err
	}
	if batchID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Batch ID is required")
	}
	next, total, err := input.build()
	if err != nil {
		return nil, err
	}

	var result Result
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, batchID)
		if err != nil {
			return notFoundOr(err, "load batch")
		}
		oldKey := current.ProductKey
		oldTotal := current.TotalQuantity()

		next.BatchID = current.BatchID
		next.CreatedAt = current.CreatedAt
		if err := repo.Save(ctx, next); err != nil {
			return writeErr(err, next.ProductKey, "update batch")
		}

		var product *models.Product
		if oldKey == next.ProductKey {
			product, err = s.ledger.Adjust(ctx, tx, next.ProductKey, total-oldTotal, stock.ReasonBatchUpdated)
			if err != nil {
				return err
			}
		} else {
			if _, err := s.ledger.Adjust(ctx, tx, oldKey, -oldTotal, stock.ReasonBatchUpdated); err != nil {
				return err
			}
			product, err = s.ledger.Adjust(ctx, tx, next.ProductKey, total, stock.ReasonBatchUpdated)
			if err != nil {
				return err
			}
		}
		result = Result{Batch: next, Product: product}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "batch.updated", next, total)
	return &result, nil
}

func (s *service) Delete(ctx context.Context, principal policy.Principal, batchID int64) (*Result, error) {
	if err := policy.Authorize(principal, policy.ActionDelete, policy.ResourceBatch); err != nil {
		return nil, err
	}
	if batchID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Batch ID is required")
	}

	var result Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, batchID)
		if err != nil {
			return notFoundOr(err, "load batch")
		}
		if err := repo.Delete(ctx, batchID); err != nil {
			return notFoundOr(err, "delete batch")
		}
		product, err := s.ledger.Adjust(ctx, tx, current.ProductKey, -current.TotalQuantity(), stock.ReasonBatchDeleted)
		if err != nil {
			return err
		}
		result = Result{Batch: current, Product: product}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "batch.deleted", result.Batch, -result.Batch.TotalQuantity())
	return &result, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[Summary], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[Summary]{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list batches")
	}
	page := pagination.NewPage(rows, params, total)
	return pagination.Map(page, func(b models.Batch) Summary {
		out := Summary{Batch: b}
		if b.Product != nil {
			out.ProductName = b.Product.Name
			out.ProductUOM = b.Product.UOM
			out.Batch.Product = nil
		}
		return out
	}), nil
}

// build validates the input and returns the batch row with the stock it carries.
func (in Input) build() (*models.Batch, int64, error) {
	key := strings.TrimSpace(in.ProductKey)
	if key == "" || in.UOM == nil || in.Packs == nil || in.Loose == nil ||
		in.MFD == nil || in.EXP == nil || in.Cost == nil || in.LabeledPrice == nil ||
		strings.TrimSpace(in.PurchaseInvoiceID) == "" || strings.TrimSpace(in.AddedBy) == "" {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	if *in.UOM <= 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "uom must be greater than zero")
	}
	if *in.Packs < 0 || *in.Loose < 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "packs and loose must not be negative")
	}
	if in.Cost.IsNegative() || in.LabeledPrice.IsNegative() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cost and labeled_price must not be negative")
	}
	if in.EXP.Before(*in.MFD) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "exp must not be before mfd")
	}

	batch := &models.Batch{
		ProductKey:        key,
		UOM:               *in.UOM,
		Packs:             *in.Packs,
		Loose:             *in.Loose,
		MFD:               in.MFD.UTC(),
		EXP:               in.EXP.UTC(),
		Cost:              *in.Cost,
		LabeledPrice:      *in.LabeledPrice,
		PurchaseInvoiceID: strings.TrimSpace(in.PurchaseInvoiceID),
		AddedBy:           strings.TrimSpace(in.AddedBy),
	}
	total := batch.TotalQuantity()
	if in.TotalQuantity != nil && *in.TotalQuantity != total {
		return nil, 0, pkgerrors.Newf(pkgerrors.CodeValidation, "totalQuantity %d does not match uom*packs+loose (%d)", *in.TotalQuantity, total)
	}
	return batch, total, nil
}

func writeErr(err error, productKey, op string) error {
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "Product not found: %s", productKey)
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, op)
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Batch not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, op)
}

func (s *service) log(ctx context.Context, event string, batch *models.Batch, delta int64) {
	if s.logg == nil || batch == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"batch_id":    batch.BatchID,
		"product_key": batch.ProductKey,
		"delta":       delta,
	}), event)
}
