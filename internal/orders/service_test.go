package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/ledger"
	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/internal/stock"
	"github.com/beveragedistro/ops-backend/internal/trips"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/dbtest"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

var staff = policy.Principal{UserID: uuid.New(), Email: "staff@distro.test", Role: enums.RoleStaff}

type fixture struct {
	svc  Service
	conn *gorm.DB
	shop *models.Shop
	trip *models.Trip
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromGorm(conn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	tripSvc, err := trips.NewService(trips.NewRepository(conn), client, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, stock.NewLedger(nil, nil), ledgerSvc, tripSvc, nil)
	require.NoError(t, err)

	shop := dbtest.MustShop(t, conn, "Alpha Mart")
	route := dbtest.MustRoute(t, conn, "North loop", shop)
	trip := dbtest.MustTrip(t, conn, route.ID, staff.Email)
	return fixture{svc: svc, conn: conn, shop: shop, trip: trip}
}

func (f fixture) input(orderType enums.OrderType, payment enums.PaymentType, lines ...LineInput) CreateInput {
	return CreateInput{
		ShopID:      f.shop.ID,
		TripID:      f.trip.ID,
		Lines:       lines,
		TotalAmount: decimal.RequireFromString("480.00"),
		Discount:    decimal.RequireFromString("20.00"),
		Type:        orderType,
		PaymentType: payment,
	}
}

func (f fixture) stock(t *testing.T, key string) int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, f.conn.Where(`"key" = ?`, key).First(&p).Error)
	return p.Stock
}

func (f fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func TestCreateCashCreditOrder(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 50)
	dbtest.MustProduct(t, f.conn, "SODA-250", 10)

	order, err := f.svc.Create(context.Background(), staff, f.input(enums.OrderTypeCredit, enums.PaymentTypeCash,
		LineInput{ProductKey: "COLA-330", Quantity: 24},
		LineInput{ProductKey: "SODA-250", Quantity: 4},
	))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	require.Len(t, order.Lines, 2)

	assert.EqualValues(t, 26, f.stock(t, "COLA-330"))
	assert.EqualValues(t, 6, f.stock(t, "SODA-250"))

	var txns []models.Transaction
	require.NoError(t, f.conn.Where("order_id = ?", order.ID).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, enums.TransactionTypeCredit, txns[0].Type)
	assert.Equal(t, enums.PaymentMethodCash, txns[0].PaymentMethod)
	assert.NotNil(t, txns[0].DatePaid)
	assert.True(t, txns[0].Amount.Equal(decimal.RequireFromString("480.00")))

	var link models.TripOrder
	require.NoError(t, f.conn.Where("order_id = ?", order.ID).First(&link).Error)
	assert.Equal(t, f.trip.ID, link.TripID)
	assert.Equal(t, trips.LinkedOrderSequence, link.SequenceOrder)
	require.NotNil(t, link.ShopID)
	assert.Equal(t, f.shop.ID, *link.ShopID)
}

func TestCreateCreditPaymentSkipsTransaction(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 50)

	_, err := f.svc.Create(context.Background(), staff, f.input(enums.OrderTypeCredit, enums.PaymentTypeCredit,
		LineInput{ProductKey: "COLA-330", Quantity: 5},
	))
	require.NoError(t, err)
	assert.Zero(t, f.count(t, &models.Transaction{}))
	assert.EqualValues(t, 45, f.stock(t, "COLA-330"))
}

func TestCreateDebitOrderReturnsStock(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 0)

	_, err := f.svc.Create(context.Background(), staff, f.input(enums.OrderTypeDebit, enums.PaymentTypeCash,
		LineInput{ProductKey: "COLA-330", Quantity: 7},
	))
	require.NoError(t, err)
	assert.EqualValues(t, 7, f.stock(t, "COLA-330"))

	var txn models.Transaction
	require.NoError(t, f.conn.First(&txn).Error)
	assert.Equal(t, enums.TransactionTypeDebit, txn.Type)
}

// A missing product on the last line undoes the order, its transaction, its
// trip link and the stock already taken for earlier lines.
func TestCreateRollsBackWhenLaterLineHasUnknownProduct(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 50)
	dbtest.MustProduct(t, f.conn, "SODA-250", 10)

	_, err := f.svc.Create(context.Background(), staff, f.input(enums.OrderTypeCredit, enums.PaymentTypeCash,
		LineInput{ProductKey: "COLA-330", Quantity: 24},
		LineInput{ProductKey: "SODA-250", Quantity: 4},
		LineInput{ProductKey: "GHOST-1L", Quantity: 1},
	))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Product not found: GHOST-1L", pkgerrors.As(err).Message())

	assert.EqualValues(t, 50, f.stock(t, "COLA-330"))
	assert.EqualValues(t, 10, f.stock(t, "SODA-250"))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.OrderLine{}))
	assert.Zero(t, f.count(t, &models.Transaction{}))
	assert.Zero(t, f.count(t, &models.TripOrder{}))
}

func TestCreateUnknownShopIsNotFound(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 10)

	in := f.input(enums.OrderTypeCredit, enums.PaymentTypeCash, LineInput{ProductKey: "COLA-330", Quantity: 1})
	in.ShopID = uuid.New()
	_, err := f.svc.Create(context.Background(), staff, in)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Shop not found", pkgerrors.As(err).Message())

	assert.EqualValues(t, 10, f.stock(t, "COLA-330"))
	assert.Zero(t, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.Transaction{}))
}

func TestCreateRejectsOversell(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 3)

	_, err := f.svc.Create(context.Background(), staff, f.input(enums.OrderTypeCredit, enums.PaymentTypeCash,
		LineInput{ProductKey: "COLA-330", Quantity: 4},
	))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.EqualValues(t, 3, f.stock(t, "COLA-330"))
	assert.Zero(t, f.count(t, &models.Order{}))
}

func TestCreateWithUnknownTripStillRecordsOrder(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 10)

	in := f.input(enums.OrderTypeCredit, enums.PaymentTypeCredit, LineInput{ProductKey: "COLA-330", Quantity: 1})
	in.TripID = uuid.New()
	_, err := f.svc.Create(context.Background(), staff, in)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.count(t, &models.Order{}))
	assert.Zero(t, f.count(t, &models.TripOrder{}))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]CreateInput{
		"no lines":      f.input(enums.OrderTypeCredit, enums.PaymentTypeCash),
		"zero quantity": f.input(enums.OrderTypeCredit, enums.PaymentTypeCash, LineInput{ProductKey: "A", Quantity: 0}),
		"bad type":      f.input("barter", enums.PaymentTypeCash, LineInput{ProductKey: "A", Quantity: 1}),
		"bad payment":   f.input(enums.OrderTypeCredit, "cheque", LineInput{ProductKey: "A", Quantity: 1}),
	}
	noTrip := f.input(enums.OrderTypeCredit, enums.PaymentTypeCash, LineInput{ProductKey: "A", Quantity: 1})
	noTrip.TripID = uuid.Nil
	cases["no trip"] = noTrip

	for name, in := range cases {
		_, err := f.svc.Create(ctx, staff, in)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}
}

func TestConfirmCashPayment(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 10)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, staff, f.input(enums.OrderTypeCredit, enums.PaymentTypeCredit,
		LineInput{ProductKey: "COLA-330", Quantity: 2},
	))
	require.NoError(t, err)

	res, err := f.svc.ConfirmCashPayment(ctx, staff, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentTypeCash, res.UpdatedOrder.PaymentType)
	assert.Equal(t, enums.OrderStatusComplete, res.UpdatedOrder.Status)
	assert.Equal(t, enums.TransactionTypeCredit, res.Transaction.Type)
	assert.True(t, res.Transaction.Amount.Equal(order.TotalAmount))

	_, err = f.svc.ConfirmCashPayment(ctx, staff, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, "Order is already marked as cash payment", pkgerrors.As(err).Message())
	assert.EqualValues(t, 1, f.count(t, &models.Transaction{}))
	assert.EqualValues(t, 8, f.stock(t, "COLA-330"), "settlement does not move stock")

	_, err = f.svc.ConfirmCashPayment(ctx, staff, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListAndReturnable(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 100)
	other := dbtest.MustShop(t, f.conn, "Beta Kiosk")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, staff, f.input(enums.OrderTypeCredit, enums.PaymentTypeCredit,
			LineInput{ProductKey: "COLA-330", Quantity: 1}))
		require.NoError(t, err)
	}
	in := f.input(enums.OrderTypeCredit, enums.PaymentTypeCash, LineInput{ProductKey: "COLA-330", Quantity: 1})
	in.ShopID = other.ID
	returned, err := f.svc.Create(ctx, staff, in)
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", returned.ID).Update("status", enums.OrderStatusReturned).Error)

	page, err := f.svc.List(ctx, ListFilter{Params: pagination.Params{Page: 1, PageSize: 2}, ShopID: &f.shop.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalItems)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Items[0].Shop)
	require.Len(t, page.Items[0].Lines, 1)
	require.NotNil(t, page.Items[0].Lines[0].Product)

	cash := enums.PaymentTypeCash
	page, err = f.svc.List(ctx, ListFilter{PaymentType: &cash})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalItems)

	open, err := f.svc.ListReturnable(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, open, 3)

	open, err = f.svc.ListReturnable(ctx, &other.ID)
	require.NoError(t, err)
	assert.Empty(t, open)

	got, err := f.svc.Get(ctx, returned.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReturned, got.Status)
}

// Scripted batches, sales and returns keep stored stock equal to the replay.
func TestStockConservationAcrossOrders(t *testing.T) {
	f := newFixture(t)
	dbtest.MustProduct(t, f.conn, "COLA-330", 0)
	ctx := context.Background()
	adjuster := stock.NewLedger(nil, nil)

	receive := func(total int64) {
		require.NoError(t, f.conn.Create(&models.Batch{
			ProductKey: "COLA-330", UOM: 1, Packs: int(total), Loose: 0,
			Cost: decimal.NewFromInt(1), LabeledPrice: decimal.NewFromInt(2),
			PurchaseInvoiceID: "INV", AddedBy: "admin@distro.test",
		}).Error)
		_, err := adjuster.Adjust(ctx, f.conn, "COLA-330", total, stock.ReasonBatchCreated)
		require.NoError(t, err)
	}
	order := func(orderType enums.OrderType, qty int64) error {
		_, err := f.svc.Create(ctx, staff, f.input(orderType, enums.PaymentTypeCash, LineInput{ProductKey: "COLA-330", Quantity: qty}))
		return err
	}

	receive(40)
	require.NoError(t, order(enums.OrderTypeCredit, 25))
	require.NoError(t, order(enums.OrderTypeDebit, 5))
	require.Error(t, order(enums.OrderTypeCredit, 100))
	receive(10)
	require.NoError(t, order(enums.OrderTypeCredit, 30))

	reconciler, err := stock.NewReconciler(f.conn, nil)
	require.NoError(t, err)
	drifts, err := reconciler.Check(ctx, "COLA-330")
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.EqualValues(t, 0, drifts[0].Stored)
	assert.True(t, drifts[0].InSync())
}
