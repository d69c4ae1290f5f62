package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
)

// MustProduct inserts an active product with the given stock.
func MustProduct(t testing.TB, conn *gorm.DB, key string, stock int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Key:                 key,
		Name:                key + " name",
		UOM:                 12,
		Stock:               stock,
		DefaultLabeledPrice: decimal.NewFromInt(100),
		DefaultCost:         decimal.NewFromInt(80),
		Status:              enums.ProductStatusActive,
	}
	must(t, conn.Create(p).Error, "create product")
	return p
}

// MustShop inserts a shop.
func MustShop(t testing.TB, conn *gorm.DB, name string) *models.Shop {
	t.Helper()
	s := &models.Shop{Name: name, Address: name + " street", PhoneNumber: "0700000000"}
	must(t, conn.Create(s).Error, "create shop")
	return s
}

// MustRoute inserts a route visiting shops in the given order.
func MustRoute(t testing.TB, conn *gorm.DB, name string, shops ...*models.Shop) *models.Route {
	t.Helper()
	r := &models.Route{Name: name}
	for i, s := range shops {
		r.RouteShops = append(r.RouteShops, models.RouteShop{ShopID: s.ID, SequenceOrder: i + 1})
	}
	must(t, conn.Create(r).Error, "create route")
	return r
}

// MustTrip inserts a trip on the route assigned to the given email.
func MustTrip(t testing.TB, conn *gorm.DB, routeID uuid.UUID, assignedTo string) *models.Trip {
	t.Helper()
	trip := &models.Trip{RouteID: routeID, AssignedTo: assignedTo, TripDate: time.Now().UTC()}
	must(t, conn.Create(trip).Error, "create trip")
	return trip
}

// MustUser inserts an active user with a placeholder hash.
func MustUser(t testing.TB, conn *gorm.DB, email string, role enums.Role) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		Name:         string(role) + " user",
		Role:         role,
		Status:       enums.UserStatusActive,
		PasswordHash: "hash",
	}
	must(t, conn.Create(u).Error, "create user")
	return u
}

func must(t testing.TB, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}
