package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Repository exposes order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateLine(ctx context.Context, line *models.OrderLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetailed(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateSettlement(ctx context.Context, id uuid.UUID, paymentType enums.PaymentType, status enums.OrderStatus) error
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	ListReturnable(ctx context.Context, shopID *uuid.UUID) ([]models.Order, error)
}

// ListFilter narrows order listings.
type ListFilter struct {
	Params      pagination.Params
	ShopID      *uuid.UUID
	PaymentType *enums.PaymentType
	Status      *enums.OrderStatus
	Type        *enums.OrderType
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds an orders repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order row only; lines are written one by one with CreateLine.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Lines", "Shop").Create(order).Error
}

func (r *repository) CreateLine(ctx context.Context, line *models.OrderLine) error {
	return r.db.WithContext(ctx).Omit("Product").Create(line).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindDetailed(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Shop").
		Preload("Lines.Product").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateSettlement(ctx context.Context, id uuid.UUID, paymentType enums.PaymentType, status enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_type": paymentType,
			"status":       status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	params := filter.Params.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.ShopID != nil {
		q = q.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.PaymentType != nil {
		q = q.Where("payment_type = ?", *filter.PaymentType)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	if err := q.Preload("Shop").
		Preload("Lines.Product").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) ListReturnable(ctx context.Context, shopID *uuid.UUID) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status <> ?", enums.OrderStatusReturned)
	if shopID != nil {
		q = q.Where("shop_id = ?", *shopID)
	}

	var rows []models.Order
	if err := q.Preload("Shop").
		Preload("Lines.Product").
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
