package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

// Repository exposes trip and trip-order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, trip *models.Trip) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	FindDetailed(ctx context.Context, id uuid.UUID) (*models.Trip, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	RouteExists(ctx context.Context, routeID uuid.UUID) (bool, error)
	OrderShops(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	CreateTripOrders(ctx context.Context, rows []models.TripOrder) error
	DeleteTripOrders(ctx context.Context, tripID uuid.UUID) error
	MoveTripOrders(ctx context.Context, tripID, routeID uuid.UUID) error
	MarkVisited(ctx context.Context, tripID, shopID uuid.UUID, at time.Time) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]models.Trip, int64, error)
}

// ListFilter narrows trip listings.
type ListFilter struct {
	Params     pagination.Params
	AssignedTo string
	WithShops  bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a trips repository to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, trip *models.Trip) error {
	return r.db.WithContext(ctx).Omit("Route", "TripOrders").Create(trip).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *repository) FindDetailed(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	if err := withTripOrders(r.db.WithContext(ctx)).
		Preload("Route").
		Where("id = ?", id).
		First(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

// Update writes the given columns. A map is used so false and NULL values are
// written instead of skipped.
func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Trip{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Trip{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) RouteExists(ctx context.Context, routeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Route{}).Where("id = ?", routeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// OrderShops maps each existing order id to its shop id.
func (r *repository) OrderShops(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	out := make(map[uuid.UUID]uuid.UUID, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []models.Order
	if err := r.db.WithContext(ctx).
		Select("id", "shop_id").
		Where("id IN ?", orderIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.ShopID
	}
	return out, nil
}

func (r *repository) CreateTripOrders(ctx context.Context, rows []models.TripOrder) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Order").Create(&rows).Error
}

func (r *repository) DeleteTripOrders(ctx context.Context, tripID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("trip_id = ?", tripID).Delete(&models.TripOrder{}).Error
}

// MoveTripOrders points every trip order of the trip at routeID.
func (r *repository) MoveTripOrders(ctx context.Context, tripID, routeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TripOrder{}).
		Where("trip_id = ?", tripID).
		Update("route_id", routeID).Error
}

// MarkVisited flags every trip order of the trip that belongs to the shop,
// either through its own shop_id or through its order.
func (r *repository) MarkVisited(ctx context.Context, tripID, shopID uuid.UUID, at time.Time) (int64, error) {
	orderIDs := r.db.Model(&models.Order{}).Select("id").Where("shop_id = ?", shopID)
	res := r.db.WithContext(ctx).
		Model(&models.TripOrder{}).
		Where("trip_id = ?", tripID).
		Where(r.db.Where("shop_id = ?", shopID).Or("order_id IN (?)", orderIDs)).
		Updates(map[string]any{
			"is_visited": true,
			"visited_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Trip, int64, error) {
	params := filter.Params.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Trip{})
	if params.Search != "" {
		q = q.Joins("JOIN routes ON routes.id = trips.route_id").
			Where("LOWER(routes.name) LIKE ?", params.Like())
	}
	if filter.AssignedTo != "" {
		q = q.Where("trips.assigned_to = ?", filter.AssignedTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = withTripOrders(q)
	if filter.WithShops {
		q = q.Preload("Route.RouteShops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).Preload("Route.RouteShops.Shop")
	} else {
		q = q.Preload("Route")
	}

	var rows []models.Trip
	if err := q.Order("trips.created_at DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func withTripOrders(q *gorm.DB) *gorm.DB {
	return q.Preload("TripOrders", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Preload("TripOrders.Order")
}
