package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beveragedistro/ops-backend/api/middleware"
	internalorders "github.com/beveragedistro/ops-backend/internal/orders"
	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/internal/returns"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type stubOrders struct {
	internalorders.Service
	create  func(ctx context.Context, p policy.Principal, in internalorders.CreateInput) (*models.Order, error)
	confirm func(ctx context.Context, p policy.Principal, id uuid.UUID) (*internalorders.Confirmation, error)
	list    func(ctx context.Context, f internalorders.ListFilter) (pagination.Page[models.Order], error)
}

func (s stubOrders) Create(ctx context.Context, p policy.Principal, in internalorders.CreateInput) (*models.Order, error) {
	return s.create(ctx, p, in)
}

func (s stubOrders) ConfirmCashPayment(ctx context.Context, p policy.Principal, id uuid.UUID) (*internalorders.Confirmation, error) {
	return s.confirm(ctx, p, id)
}

func (s stubOrders) List(ctx context.Context, f internalorders.ListFilter) (pagination.Page[models.Order], error) {
	return s.list(ctx, f)
}

type stubReturns func(ctx context.Context, p policy.Principal, orderID, tripID uuid.UUID) (*returns.Result, error)

func (f stubReturns) ConfirmReturn(ctx context.Context, p policy.Principal, orderID, tripID uuid.UUID) (*returns.Result, error) {
	return f(ctx, p, orderID, tripID)
}

func staffRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	p := policy.Principal{UserID: uuid.New(), Email: "staff@distro.test", Role: enums.RoleStaff}
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func TestCreateMapsOrderBody(t *testing.T) {
	shopID, tripID := uuid.New(), uuid.New()
	svc := stubOrders{create: func(_ context.Context, _ policy.Principal, in internalorders.CreateInput) (*models.Order, error) {
		assert.Equal(t, shopID, in.ShopID)
		assert.Equal(t, tripID, in.TripID)
		require.Len(t, in.Lines, 2)
		assert.Equal(t, "COLA", in.Lines[0].ProductKey)
		assert.Equal(t, int64(24), in.Lines[0].Quantity)
		assert.True(t, decimal.RequireFromString("1250.50").Equal(in.TotalAmount))
		assert.Equal(t, enums.OrderTypeDebit, in.Type)
		assert.Equal(t, enums.PaymentTypeCash, in.PaymentType)
		return &models.Order{ID: uuid.New()}, nil
	}}

	body := `{"shopId":"` + shopID.String() + `","tripId":"` + tripID.String() + `",
		"products":[{"productId":"COLA","quantity":24},{"productId":"SODA","quantity":6}],
		"totalAmount":1250.50,"discount":0,"type":"Debit","payment_type":"cash"}`
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, staffRequest(http.MethodPost, "/api/orders", body))

	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Order created successfully")
}

func TestCreatePropagatesMissingProduct(t *testing.T) {
	svc := stubOrders{create: func(context.Context, policy.Principal, internalorders.CreateInput) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found: GHOST")
	}}
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, staffRequest(http.MethodPost, "/api/orders", `{}`))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "GHOST")
}

func TestListParsesFilters(t *testing.T) {
	shopID := uuid.New()
	svc := stubOrders{list: func(_ context.Context, f internalorders.ListFilter) (pagination.Page[models.Order], error) {
		require.NotNil(t, f.ShopID)
		assert.Equal(t, shopID, *f.ShopID)
		require.NotNil(t, f.PaymentType)
		assert.Equal(t, enums.PaymentTypeCredit, *f.PaymentType)
		return pagination.NewPage[models.Order](nil, f.Params, 0), nil
	}}
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, staffRequest(http.MethodGet, "/api/orders?shopId="+shopID.String()+"&payment_type=credit", ""))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, staffRequest(http.MethodGet, "/api/orders?payment_type=cheque", ""))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestConfirmConflictIs403(t *testing.T) {
	svc := stubOrders{confirm: func(context.Context, policy.Principal, uuid.UUID) (*internalorders.Confirmation, error) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Order is already marked as cash payment")
	}}
	resp := httptest.NewRecorder()
	Confirm(svc, nil).ServeHTTP(resp, staffRequest(http.MethodPost, "/api/orders/confirm", `{"orderId":"`+uuid.NewString()+`"}`))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestConfirmReturnWrapsResult(t *testing.T) {
	orderID, tripID := uuid.New(), uuid.New()
	svc := stubReturns(func(_ context.Context, _ policy.Principal, gotOrder, gotTrip uuid.UUID) (*returns.Result, error) {
		assert.Equal(t, orderID, gotOrder)
		assert.Equal(t, tripID, gotTrip)
		return &returns.Result{UpdatedOrder: &models.Order{ID: orderID}}, nil
	})
	body := `{"orderId":"` + orderID.String() + `","tripId":"` + tripID.String() + `"}`
	resp := httptest.NewRecorder()
	ConfirmReturn(svc, nil).ServeHTTP(resp, staffRequest(http.MethodPost, "/api/orders/return/confirm", body))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"updatedOrder"`)
}
