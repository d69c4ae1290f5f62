package batches

import (
	"context"

	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Repository exposes batch persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, batch *models.Batch) error
	FindByID(ctx context.Context, id int64) (*models.Batch, error)
	Save(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params pagination.Params) ([]models.Batch, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a batch repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Omit("Product").Create(batch).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).Where("batch_id = ?", id).First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) Save(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("batch_id = ?", id).Delete(&models.Batch{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Batch, int64, error) {
	params = params.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Batch{})
	if params.Search != "" {
		q = q.Where("LOWER(product_key) LIKE ? OR LOWER(purchase_invoice_id) LIKE ?", params.Like(), params.Like())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Batch
	if err := q.Preload("Product").
		Order("created_at DESC").
		Order("batch_id DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
