package trips

import (
	"github.com/google/uuid"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
)

// StaffTrip is a trip as shown to the staff member driving it.
type StaffTrip struct {
	models.Trip
	Route *StaffRoute `json:"route"`
}

// StaffRoute is the trip's route with per-shop visit state.
type StaffRoute struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	RouteShops []StaffRouteShop `json:"route_shops"`
}

// StaffRouteShop is one stop on the route.
type StaffRouteShop struct {
	ID            uuid.UUID  `json:"id"`
	RouteID       uuid.UUID  `json:"route_id"`
	ShopID        uuid.UUID  `json:"shop_id"`
	SequenceOrder int        `json:"sequence_order"`
	Shop          *StaffShop `json:"shop"`
}

// StaffShop carries two signals: Visited comes from is_visited on this trip's
// orders and HasOrders only says the trip holds an order for the shop.
type StaffShop struct {
	models.Shop
	Visited   bool `json:"visited"`
	HasOrders bool `json:"has_orders"`
}

func newStaffTrip(trip models.Trip) StaffTrip {
	visited := map[uuid.UUID]bool{}
	hasOrders := map[uuid.UUID]bool{}
	for _, to := range trip.TripOrders {
		shopID, ok := tripOrderShop(to)
		if !ok {
			continue
		}
		hasOrders[shopID] = true
		if to.IsVisited {
			visited[shopID] = true
		}
	}

	out := StaffTrip{Trip: trip}
	out.Trip.Route = nil
	if trip.Route == nil {
		return out
	}

	route := &StaffRoute{
		ID:         trip.Route.ID,
		Name:       trip.Route.Name,
		RouteShops: make([]StaffRouteShop, 0, len(trip.Route.RouteShops)),
	}
	for _, rs := range trip.Route.RouteShops {
		stop := StaffRouteShop{
			ID:            rs.ID,
			RouteID:       rs.RouteID,
			ShopID:        rs.ShopID,
			SequenceOrder: rs.SequenceOrder,
		}
		if rs.Shop != nil {
			stop.Shop = &StaffShop{
				Shop:      *rs.Shop,
				Visited:   visited[rs.ShopID],
				HasOrders: hasOrders[rs.ShopID],
			}
		}
		route.RouteShops = append(route.RouteShops, stop)
	}
	out.Route = route
	return out
}

func tripOrderShop(to models.TripOrder) (uuid.UUID, bool) {
	if to.ShopID != nil && *to.ShopID != uuid.Nil {
		return *to.ShopID, true
	}
	if to.Order != nil {
		return to.Order.ShopID, true
	}
	return uuid.Nil, false
}
