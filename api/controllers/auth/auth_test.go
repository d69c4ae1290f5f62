package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalauth "github.com/beveragedistro/ops-backend/internal/auth"
	"github.com/beveragedistro/ops-backend/internal/users"
	pkgAuth "github.com/beveragedistro/ops-backend/pkg/auth"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "distro-ops", ExpirationMinutes: 5}

type stubAuth struct {
	login   func(ctx context.Context, req internalauth.LoginRequest) (*internalauth.LoginResponse, error)
	refresh func(ctx context.Context, req internalauth.RefreshRequest) (*internalauth.LoginResponse, error)
	revoked []string
}

func (s *stubAuth) Login(ctx context.Context, req internalauth.LoginRequest) (*internalauth.LoginResponse, error) {
	return s.login(ctx, req)
}

func (s *stubAuth) Refresh(ctx context.Context, req internalauth.RefreshRequest) (*internalauth.LoginResponse, error) {
	return s.refresh(ctx, req)
}

func (s *stubAuth) Logout(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func TestLoginReturnsTokens(t *testing.T) {
	svc := &stubAuth{login: func(_ context.Context, req internalauth.LoginRequest) (*internalauth.LoginResponse, error) {
		assert.Equal(t, "admin@distro.test", req.Email)
		return &internalauth.LoginResponse{AccessToken: "a", RefreshToken: "r", User: &users.UserDTO{Email: req.Email}}, nil
	}}
	resp := httptest.NewRecorder()
	Login(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"admin@distro.test","password":"pw"}`)))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"access_token":"a"`)
}

func TestLoginFailureIs401(t *testing.T) {
	svc := &stubAuth{login: func(context.Context, internalauth.LoginRequest) (*internalauth.LoginResponse, error) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}}
	resp := httptest.NewRecorder()
	Login(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"admin@distro.test","password":"bad"}`)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "invalid credentials")

	resp = httptest.NewRecorder()
	Login(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":""}`)))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogoutAcceptsExpiredToken(t *testing.T) {
	token, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(), Email: "staff@distro.test", Role: enums.RoleStaff, JTI: "access-9",
	})
	require.NoError(t, err)

	svc := &stubAuth{}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Logout(svc, testJWT, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"access-9"}, svc.revoked)
}

func TestLogoutWithoutToken(t *testing.T) {
	resp := httptest.NewRecorder()
	Logout(&stubAuth{}, testJWT, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
