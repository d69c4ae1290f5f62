package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/dbtest"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type stubRepo struct {
	createFn func(ctx context.Context, txn *models.Transaction) error
	listFn   func(ctx context.Context, filter ListFilter) ([]models.Transaction, int64, error)
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, txn *models.Transaction) error {
	if s.createFn != nil {
		return s.createFn(ctx, txn)
	}
	return nil
}

func (s *stubRepo) ListByOrderID(context.Context, uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.Transaction, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestRecordSettlesCashTransaction(t *testing.T) {
	var stored *models.Transaction
	svc, err := NewService(&stubRepo{createFn: func(_ context.Context, txn *models.Transaction) error {
		stored = txn
		return nil
	}})
	require.NoError(t, err)
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	input := RecordInput{
		OrderID: uuid.New(),
		ShopID:  uuid.New(),
		Amount:  decimal.RequireFromString("250.50"),
		Type:    enums.TransactionTypeCredit,
	}
	txn, err := svc.Record(context.Background(), nil, input)
	require.NoError(t, err)
	require.Same(t, stored, txn)

	assert.Equal(t, enums.PaymentMethodCash, txn.PaymentMethod)
	assert.Equal(t, fixed, txn.DateCreated)
	require.NotNil(t, txn.DatePaid)
	assert.Equal(t, fixed, *txn.DatePaid)
	assert.True(t, txn.Amount.Equal(input.Amount))
}

func TestRecordValidatesInput(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	require.NoError(t, err)

	cases := []RecordInput{
		{ShopID: uuid.New(), Type: enums.TransactionTypeDebit},
		{OrderID: uuid.New(), Type: enums.TransactionTypeDebit},
		{OrderID: uuid.New(), ShopID: uuid.New(), Type: "refund"},
	}
	for _, in := range cases {
		_, err := svc.Record(context.Background(), nil, in)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v", in)
	}
}

func TestRecordWrapsStorageFailure(t *testing.T) {
	svc, err := NewService(&stubRepo{createFn: func(context.Context, *models.Transaction) error {
		return errors.New("disk full")
	}})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), nil, RecordInput{
		OrderID: uuid.New(),
		ShopID:  uuid.New(),
		Type:    enums.TransactionTypeCredit,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStorage))
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	require.NoError(t, err)
	start := time.Now()
	end := start.Add(-time.Hour)

	_, err = svc.List(context.Background(), ListFilter{StartDate: &start, EndDate: &end})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListFiltersAgainstDatabase(t *testing.T) {
	conn := dbtest.Open(t)
	shopA := dbtest.MustShop(t, conn, "Corner Store")
	shopB := dbtest.MustShop(t, conn, "Kiosk")
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	for i, in := range []RecordInput{
		{OrderID: uuid.New(), ShopID: shopA.ID, Amount: decimal.NewFromInt(10), Type: enums.TransactionTypeCredit},
		{OrderID: uuid.New(), ShopID: shopA.ID, Amount: decimal.NewFromInt(20), Type: enums.TransactionTypeDebit},
		{OrderID: uuid.New(), ShopID: shopB.ID, Amount: decimal.NewFromInt(30), Type: enums.TransactionTypeCredit},
	} {
		stamp := time.Date(2025, 3, 1+i, 0, 0, 0, 0, time.UTC)
		svc.(*service).now = func() time.Time { return stamp }
		_, err := svc.Record(ctx, conn, in)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListFilter{Params: pagination.Params{Page: 1, PageSize: 10}, ShopID: &shopA.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 2, page.TotalItems)
	assert.True(t, page.Items[0].Amount.Equal(decimal.NewFromInt(20)), "newest first")
	require.NotNil(t, page.Items[0].Shop)
	assert.Equal(t, "Corner Store", page.Items[0].Shop.Name)

	credit := enums.TransactionTypeCredit
	page, err = svc.List(ctx, ListFilter{Type: &credit})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)

	from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	page, err = svc.List(ctx, ListFilter{StartDate: &from})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
}
