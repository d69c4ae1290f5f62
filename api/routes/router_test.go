package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beveragedistro/ops-backend/api/controllers/health"
	"github.com/beveragedistro/ops-backend/internal/auth"
	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/internal/shops"
	pkgAuth "github.com/beveragedistro/ops-backend/pkg/auth"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/metrics"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuth struct {
	auth.Service
	calls int
}

func (s *stubAuth) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	s.calls++
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials")
}

type stubShops struct {
	shops.Service
	principal policy.Principal
}

func (s *stubShops) List(_ context.Context, params pagination.Params) (pagination.Page[models.Shop], error) {
	return pagination.NewPage([]models.Shop{{ID: uuid.New(), Name: "Corner Store"}}, params, 1), nil
}

func (s *stubShops) Delete(_ context.Context, p policy.Principal, _ uuid.UUID) error {
	s.principal = p
	return policy.Authorize(p, policy.ActionDelete, policy.ResourceShop)
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "dev"},
		JWT:     config.JWTConfig{Secret: "router-secret", Issuer: "distro-ops", ExpirationMinutes: 60},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *stubAuth, *stubShops, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	authSvc := &stubAuth{}
	shopSvc := &stubShops{}
	h := NewRouter(Deps{
		Config:   testConfig(),
		Gatherer: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Pingers:  map[string]health.Pinger{"db": stubPinger{}, "redis": stubPinger{}},
		Auth:     authSvc,
		Shops:    shopSvc,
	})
	return h, authSvc, shopSvc, reg
}

func bearer(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "someone@distro.test",
		Role:   role,
		JTI:    uuid.NewString(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthRoutesArePublic(t *testing.T) {
	h, _, _, _ := newTestRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
		assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
	}
}

func TestAPIRoutesRequireToken(t *testing.T) {
	h, _, _, _ := newTestRouter(t)
	for _, path := range []string{"/api/shops", "/api/orders", "/api/transactions", "/api/trips/staff"} {
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

func TestLoginIsPublic(t *testing.T) {
	h, authSvc, _, _ := newTestRouter(t)
	body := `{"email":"admin@distro.test","password":"wrong"}`
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, 1, authSvc.calls)
}

func TestShopsListWithToken(t *testing.T) {
	h, _, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/shops?page=1&pageSize=10", nil)
	req.Header.Set("Authorization", bearer(t, enums.RoleStaff))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Corner Store")
}

func TestStaffCannotDeleteShop(t *testing.T) {
	h, _, shopSvc, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodDelete, "/api/shops?id="+uuid.NewString(), nil)
	req.Header.Set("Authorization", bearer(t, enums.RoleStaff))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "UNAUTHORIZED")
	assert.Equal(t, enums.RoleStaff, shopSvc.principal.Role)
}

func TestMetricsEndpointExposesRequests(t *testing.T) {
	h, _, _, _ := newTestRouter(t)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/health/live")
}
