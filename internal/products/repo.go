package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Repository exposes product persistence. Stock is deliberately absent from
// the update surface; only the stock ledger moves it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByKey(ctx context.Context, key string) (*models.Product, error)
	Update(ctx context.Context, key string, fields map[string]any) error
	Delete(ctx context.Context, key string) error
	CountReferences(ctx context.Context, key string) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
}

// ListFilter narrows a product listing.
type ListFilter struct {
	pagination.Params
	Status string
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a product repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByKey(ctx context.Context, key string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where(`"key" = ?`, key).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Update(ctx context.Context, key string, fields map[string]any) error {
	delete(fields, "stock")
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where(`"key" = ?`, key).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where(`"key" = ?`, key).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountReferences counts batches and order lines pointing at the product.
func (r *repository) CountReferences(ctx context.Context, key string) (int64, error) {
	var batches, lines int64
	if err := r.db.WithContext(ctx).Model(&models.Batch{}).Where("product_key = ?", key).Count(&batches).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.OrderLine{}).Where("product_key = ?", key).Count(&lines).Error; err != nil {
		return 0, err
	}
	return batches + lines, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	params := filter.Params.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Product{})
	if params.Search != "" {
		like := params.Like()
		q = q.Where(`(LOWER("key") LIKE ? OR LOWER(name) LIKE ?)`, like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := q.Order("name ASC").Order(`"key" ASC`).
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
