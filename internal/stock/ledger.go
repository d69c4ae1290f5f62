// Package stock owns the per-product stock counter. Every change goes through
// Ledger.Adjust inside the caller's transaction.
package stock

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/logger"
)

// Reason labels why stock moved.
type Reason string

const (
	ReasonBatchCreated Reason = "batch_created"
	ReasonBatchUpdated Reason = "batch_updated"
	ReasonBatchDeleted Reason = "batch_deleted"
	ReasonOrderCredit  Reason = "order_credit"
	ReasonOrderDebit   Reason = "order_debit"
)

type movementRecorder interface {
	ObserveMovement(reason string, delta int64)
}

// Adjuster is the surface consumed by batch and order services.
type Adjuster interface {
	Adjust(ctx context.Context, tx *gorm.DB, productKey string, delta int64, reason Reason) (*models.Product, error)
}

// Ledger applies signed stock deltas.
type Ledger struct {
	metrics movementRecorder
	logg    *logger.Logger
}

// NewLedger builds a ledger. Both dependencies are optional.
func NewLedger(metrics movementRecorder, logg *logger.Logger) *Ledger {
	return &Ledger{metrics: metrics, logg: logg}
}

// Adjust adds delta to the product's stock with a single atomic update.
// Decrements that would take stock below zero fail with CONFLICT and leave the
// row untouched. A zero delta only checks that the product exists.
func (l *Ledger) Adjust(ctx context.Context, tx *gorm.DB, productKey string, delta int64, reason Reason) (*models.Product, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock adjust requires a transaction handle")
	}
	productKey = strings.TrimSpace(productKey)
	if productKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product key is required")
	}

	if delta != 0 {
		query := tx.WithContext(ctx).Model(&models.Product{}).Where(`"key" = ?`, productKey)
		if delta < 0 {
			query = query.Where("stock >= ?", -delta)
		}
		res := query.Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			if db.IsCheckViolation(res.Error) {
				return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "insufficient stock for product %s", productKey)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, res.Error, "adjust stock")
		}
		if res.RowsAffected == 0 {
			if _, err := load(ctx, tx, productKey); err != nil {
				return nil, err
			}
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "insufficient stock for product %s", productKey)
		}
	}

	product, err := load(ctx, tx, productKey)
	if err != nil {
		return nil, err
	}

	if delta != 0 {
		if l.metrics != nil {
			l.metrics.ObserveMovement(string(reason), delta)
		}
		if l.logg != nil {
			l.logg.Debug(l.logg.WithFields(ctx, map[string]any{
				"product_key": productKey,
				"delta":       delta,
				"reason":      string(reason),
				"stock":       product.Stock,
			}), "stock.adjusted")
		}
	}
	return product, nil
}

func load(ctx context.Context, tx *gorm.DB, productKey string) (*models.Product, error) {
	var product models.Product
	if err := tx.WithContext(ctx).Where(`"key" = ?`, productKey).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "Product not found: %s", productKey)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load product")
	}
	return &product, nil
}
