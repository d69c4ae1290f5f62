package users

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
	internalusers "github.com/beveragedistro/ops-backend/internal/users"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
	"github.com/beveragedistro/ops-backend/pkg/pagination"
)

type stubUsers struct {
	create func(ctx context.Context, p policy.Principal, in internalusers.CreateInput) (*internalusers.UserDTO, error)
	update func(ctx context.Context, p policy.Principal, email string, in internalusers.UpdateInput) (*internalusers.UserDTO, error)
	del    func(ctx context.Context, p policy.Principal, email string) (*internalusers.DeleteResult, error)
}

func (s stubUsers) Create(ctx context.Context, p policy.Principal, in internalusers.CreateInput) (*internalusers.UserDTO, error) {
	return s.create(ctx, p, in)
}

func (s stubUsers) Update(ctx context.Context, p policy.Principal, email string, in internalusers.UpdateInput) (*internalusers.UserDTO, error) {
	return s.update(ctx, p, email, in)
}

func (s stubUsers) Delete(ctx context.Context, p policy.Principal, email string) (*internalusers.DeleteResult, error) {
	return s.del(ctx, p, email)
}

func (s stubUsers) List(context.Context, pagination.Params) (pagination.Page[internalusers.UserDTO], error) {
	return pagination.Page[internalusers.UserDTO]{}, nil
}

func adminRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	p := policy.Principal{UserID: uuid.New(), Email: "admin@distro.test", Role: enums.RoleAdmin}
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

func TestCreateOmitsPasswordHash(t *testing.T) {
	svc := stubUsers{create: func(_ context.Context, _ policy.Principal, in internalusers.CreateInput) (*internalusers.UserDTO, error) {
		assert.Equal(t, "secret1", in.Password)
		require.NotNil(t, in.Phone)
		return &internalusers.UserDTO{ID: uuid.New(), Email: in.Email, Role: enums.RoleStaff}, nil
	}}
	resp := httptest.NewRecorder()
	body := `{"email":"new@distro.test","name":"New","role":"staff","password":"secret1","phone":"0771"}`
	Create(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/api/users", body))

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.NotContains(t, resp.Body.String(), "password")
}

func TestUpdateNormalizesQueryEmail(t *testing.T) {
	svc := stubUsers{update: func(_ context.Context, _ policy.Principal, email string, _ internalusers.UpdateInput) (*internalusers.UserDTO, error) {
		assert.Equal(t, "staff@distro.test", email)
		return &internalusers.UserDTO{Email: email}, nil
	}}
	resp := httptest.NewRecorder()
	Update(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPut, "/api/users?email=Staff@Distro.test", `{"name":"S","role":"staff"}`))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestDeleteLastAdminIs403(t *testing.T) {
	svc := stubUsers{del: func(context.Context, policy.Principal, string) (*internalusers.DeleteResult, error) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Cannot delete the last admin")
	}}
	resp := httptest.NewRecorder()
	Delete(svc, nil).ServeHTTP(resp, adminRequest(http.MethodDelete, "/api/users?email=admin@distro.test", ""))

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "Cannot delete the last admin")
}

func TestDeleteReportsLogoutNeeded(t *testing.T) {
	svc := stubUsers{del: func(context.Context, policy.Principal, string) (*internalusers.DeleteResult, error) {
		return &internalusers.DeleteResult{LogoutNeeded: true}, nil
	}}
	resp := httptest.NewRecorder()
	Delete(svc, nil).ServeHTTP(resp, adminRequest(http.MethodDelete, "/api/users?email=admin@distro.test", ""))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"logoutNeeded":true`)
}
