package deliveryroutes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Repository exposes route persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, route *models.Route) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Route, error)
	FindDetailed(ctx context.Context, id uuid.UUID) (*models.Route, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	ReplaceShops(ctx context.Context, id uuid.UUID, shops []models.RouteShop) error
	Delete(ctx context.Context, id uuid.UUID) error
	MissingShops(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	List(ctx context.Context, params pagination.Params) ([]models.Route, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a route repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, route *models.Route) error {
	return r.db.WithContext(ctx).Create(route).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	var route models.Route
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&route).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repository) FindDetailed(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	var route models.Route
	if err := withShops(r.db.WithContext(ctx)).Where("id = ?", id).First(&route).Error; err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	res := r.db.WithContext(ctx).Model(&models.Route{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ReplaceShops(ctx context.Context, id uuid.UUID, shops []models.RouteShop) error {
	if err := r.db.WithContext(ctx).Where("route_id = ?", id).Delete(&models.RouteShop{}).Error; err != nil {
		return err
	}
	if len(shops) == 0 {
		return nil
	}
	for i := range shops {
		shops[i].RouteID = id
	}
	return r.db.WithContext(ctx).Omit("Shop").Create(&shops).Error
}

// Delete removes the route shops first, then the route.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("route_id = ?", id).Delete(&models.RouteShop{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Route{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MissingShops returns the ids that do not name a shop.
func (r *repository) MissingShops(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Shop{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Route, int64, error) {
	params = params.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Route{})
	if params.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", params.Like())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Route
	if err := withShops(q).
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func withShops(q *gorm.DB) *gorm.DB {
	return q.
		Preload("RouteShops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		Preload("RouteShops.Shop")
}
