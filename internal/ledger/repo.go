package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Repository persists transactions. Rows are append-only: there is no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.Transaction, int64, error)
}

// ListFilter narrows transaction listings.
type ListFilter struct {
	Params    pagination.Params
	ShopID    *uuid.UUID
	Type      *enums.TransactionType
	StartDate *time.Time
	EndDate   *time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transactions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("date_created ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Transaction, int64, error) {
	params := filter.Params.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.ShopID != nil {
		q = q.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.StartDate != nil {
		q = q.Where("date_created >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("date_created <= ?", *filter.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Transaction
	if err := q.Preload("Shop").
		Order("date_created DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
