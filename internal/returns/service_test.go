package returns

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/ledger"
	"github.com/beveragedistro/ops-backend/internal/orders"
	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/internal/stock"
	"github.com/beveragedistro/ops-backend/internal/trips"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/dbtest"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
)

var staff = policy.Principal{UserID: uuid.New(), Email: "staff@distro.test", Role: enums.RoleStaff}

type fixture struct {
	returns Service
	orders  orders.Service
	conn    *gorm.DB
	shop    *models.Shop
	trip    *models.Trip
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromGorm(conn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	tripSvc, err := trips.NewService(trips.NewRepository(conn), client, nil)
	require.NoError(t, err)
	orderRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(orderRepo, client, stock.NewLedger(nil, nil), ledgerSvc, tripSvc, nil)
	require.NoError(t, err)
	svc, err := NewService(orderRepo, client, ledgerSvc, tripSvc, nil)
	require.NoError(t, err)

	shop := dbtest.MustShop(t, conn, "Alpha Mart")
	route := dbtest.MustRoute(t, conn, "North loop", shop)
	trip := dbtest.MustTrip(t, conn, route.ID, staff.Email)
	dbtest.MustProduct(t, conn, "COLA-330", 40)
	return fixture{returns: svc, orders: orderSvc, conn: conn, shop: shop, trip: trip}
}

func (f fixture) sale(t *testing.T, payment enums.PaymentType) *models.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), staff, orders.CreateInput{
		ShopID:      f.shop.ID,
		TripID:      f.trip.ID,
		Lines:       []orders.LineInput{{ProductKey: "COLA-330", Quantity: 12}},
		TotalAmount: decimal.RequireFromString("300.00"),
		Discount:    decimal.RequireFromString("15.00"),
		Type:        enums.OrderTypeCredit,
		PaymentType: payment,
	})
	require.NoError(t, err)
	return order
}

func TestConfirmReturnRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.sale(t, enums.PaymentTypeCredit)

	res, err := f.returns.ConfirmReturn(ctx, staff, sale.ID, f.trip.ID)
	require.NoError(t, err)

	var original models.Order
	require.NoError(t, f.conn.Where("id = ?", sale.ID).First(&original).Error)
	assert.Equal(t, enums.OrderStatusReturned, original.Status)
	assert.Equal(t, enums.PaymentTypeCash, original.PaymentType)
	assert.Equal(t, enums.OrderStatusReturned, res.UpdatedOrder.Status)

	var txns []models.Transaction
	require.NoError(t, f.conn.Where("order_id = ?", sale.ID).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, enums.TransactionTypeDebit, txns[0].Type)
	assert.True(t, txns[0].Amount.Equal(sale.TotalAmount))
	assert.NotNil(t, txns[0].DatePaid)

	var returnOrder models.Order
	require.NoError(t, f.conn.Where("returned_from_id = ?", sale.ID).First(&returnOrder).Error)
	assert.Equal(t, res.ReturnOrder.ID, returnOrder.ID)
	assert.Equal(t, enums.OrderTypeDebit, returnOrder.Type)
	assert.Equal(t, enums.OrderStatusPaid, returnOrder.Status)
	assert.Equal(t, enums.PaymentTypeCash, returnOrder.PaymentType)
	assert.Equal(t, f.shop.ID, returnOrder.ShopID)
	assert.True(t, returnOrder.TotalAmount.Equal(sale.TotalAmount))
	assert.True(t, returnOrder.Discount.Equal(sale.Discount))

	var link models.TripOrder
	require.NoError(t, f.conn.Where("order_id = ?", returnOrder.ID).First(&link).Error)
	assert.Equal(t, f.trip.ID, link.TripID)
	assert.Equal(t, 1, link.SequenceOrder)

	var product models.Product
	require.NoError(t, f.conn.Where(`"key" = ?`, "COLA-330").First(&product).Error)
	assert.EqualValues(t, 28, product.Stock, "confirming a return moves money, not stock")
}

func TestConfirmReturnTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.sale(t, enums.PaymentTypeCash)

	_, err := f.returns.ConfirmReturn(ctx, staff, sale.ID, f.trip.ID)
	require.NoError(t, err)

	_, err = f.returns.ConfirmReturn(ctx, staff, sale.ID, f.trip.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var debitOrders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Where("type = ?", enums.OrderTypeDebit).Count(&debitOrders).Error)
	assert.EqualValues(t, 1, debitOrders)
}

func TestConfirmReturnUnknownTripRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.sale(t, enums.PaymentTypeCredit)

	_, err := f.returns.ConfirmReturn(ctx, staff, sale.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Trip not found", pkgerrors.As(err).Message())

	var original models.Order
	require.NoError(t, f.conn.Where("id = ?", sale.ID).First(&original).Error)
	assert.Equal(t, enums.OrderStatusPaid, original.Status)
	assert.Equal(t, enums.PaymentTypeCredit, original.PaymentType)

	var count int64
	require.NoError(t, f.conn.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConfirmReturnUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.returns.ConfirmReturn(context.Background(), staff, uuid.New(), f.trip.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Order not found", pkgerrors.As(err).Message())
}
