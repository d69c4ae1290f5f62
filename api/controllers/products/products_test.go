package products

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beveragedistro/ops-backend/api/middleware"
	"github.com/beveragedistro/ops-backend/internal/policy"
	internalproducts "github.com/beveragedistro/ops-backend/internal/products"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type stubProducts struct {
	internalproducts.Service
	create func(ctx context.Context, p policy.Principal, in internalproducts.Input) (*models.Product, error)
	update func(ctx context.Context, p policy.Principal, key string, in internalproducts.UpdateInput) (*models.Product, error)
	del    func(ctx context.Context, p policy.Principal, key string) error
	list   func(ctx context.Context, f internalproducts.ListFilter) (pagination.Page[models.Product], error)
}

func (s stubProducts) Create(ctx context.Context, p policy.Principal, in internalproducts.Input) (*models.Product, error) {
	return s.create(ctx, p, in)
}

func (s stubProducts) Update(ctx context.Context, p policy.Principal, key string, in internalproducts.UpdateInput) (*models.Product, error) {
	return s.update(ctx, p, key, in)
}

func (s stubProducts) Delete(ctx context.Context, p policy.Principal, key string) error {
	return s.del(ctx, p, key)
}

func (s stubProducts) List(ctx context.Context, f internalproducts.ListFilter) (pagination.Page[models.Product], error) {
	return s.list(ctx, f)
}

func adminRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	p := policy.Principal{UserID: uuid.New(), Email: "admin@distro.test", Role: enums.RoleAdmin}
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func TestCreateProduct(t *testing.T) {
	svc := stubProducts{create: func(_ context.Context, _ policy.Principal, in internalproducts.Input) (*models.Product, error) {
		assert.Equal(t, "COLA", in.Key)
		assert.Equal(t, 24, in.UOM)
		assert.Equal(t, enums.ProductStatusInactive, in.Status)
		return &models.Product{Key: in.Key}, nil
	}}
	resp := httptest.NewRecorder()
	body := `{"key":"COLA","name":"Cola 300ml","uom":24,"default_labeled_price":"150","status":"inactive"}`
	Create(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/api/products", body))
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	resp := httptest.NewRecorder()
	Create(stubProducts{}, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/api/products", `{"key":"COLA","status":"retired"}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateByKey(t *testing.T) {
	svc := stubProducts{update: func(_ context.Context, _ policy.Principal, key string, in internalproducts.UpdateInput) (*models.Product, error) {
		assert.Equal(t, "COLA", key)
		require.NotNil(t, in.Name)
		assert.Nil(t, in.UOM)
		return &models.Product{Key: key}, nil
	}}
	resp := httptest.NewRecorder()
	Update(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPut, "/api/products?key=COLA", `{"name":"Cola 500ml","stock":9999}`))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	Update(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPut, "/api/products", `{}`))
	assert.Contains(t, resp.Body.String(), "Product key is required")
}

func TestDeleteReferencedProductIs403(t *testing.T) {
	svc := stubProducts{del: func(context.Context, policy.Principal, string) error {
		return pkgerrors.New(pkgerrors.CodeConflict, "Product is referenced by batches or orders")
	}}
	resp := httptest.NewRecorder()
	Delete(svc, nil).ServeHTTP(resp, adminRequest(http.MethodDelete, "/api/products?key=COLA", ""))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestListFiltersStatus(t *testing.T) {
	svc := stubProducts{list: func(_ context.Context, f internalproducts.ListFilter) (pagination.Page[models.Product], error) {
		assert.Equal(t, "active", f.Status)
		return pagination.NewPage[models.Product](nil, f.Params, 0), nil
	}}
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, adminRequest(http.MethodGet, "/api/products?status=active", ""))
	assert.Equal(t, http.StatusOK, resp.Code)
}
