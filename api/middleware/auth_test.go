package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beveragedistro/ops-backend/internal/policy"
	"github.com/beveragedistro/ops-backend/pkg/auth"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "distro-ops", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func mintTestToken(t *testing.T, role enums.Role, jti string) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "driver@distro.test",
		Role:   role,
		JTI:    jti,
	})
	require.NoError(t, err)
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func serveWithToken(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/shops", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	assert.Equal(t, http.StatusUnauthorized, serveWithToken(handler, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(handler, "invalid").Code)
}

func TestAuthPlacesPrincipalOnContext(t *testing.T) {
	token := mintTestToken(t, enums.RoleManager, "access-1")

	var (
		got      policy.Principal
		found    bool
		accessID string
	)
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = PrincipalFromContext(r.Context())
		accessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	resp := serveWithToken(handler, token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, found)
	assert.Equal(t, "driver@distro.test", got.Email)
	assert.Equal(t, enums.RoleManager, got.Role)
	assert.NotEqual(t, uuid.Nil, got.UserID)
	assert.Equal(t, "access-1", accessID)
}

func TestAuthRequiresLiveSession(t *testing.T) {
	token := mintTestToken(t, enums.RoleStaff, "access-2")

	revoked := Auth(testJWT, stubSessionVerifier{ok: false}, nil)(okHandler())
	resp := serveWithToken(revoked, token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "session unavailable")

	broken := Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, serveWithToken(broken, token).Code)
}

func TestAuthRejectsTokenSignedWithOtherSecret(t *testing.T) {
	token := mintTestToken(t, enums.RoleAdmin, "access-3")
	other := config.JWTConfig{Secret: "other", Issuer: testJWT.Issuer, ExpirationMinutes: 60}

	handler := Auth(other, stubSessionVerifier{ok: true}, nil)(okHandler())
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(handler, token).Code)
}
