package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
)

// TestRegisterRoutes verifies that every route is mounted. A 404 means the
// route does not exist; any other status is the handler itself answering.
func TestRegisterRoutes(t *testing.T) {
	f := newHandlerFixture(t)

	// The logout probe carries no token; revoking an unknown token is a no-op.
	f.tokens.EXPECT().HashRefreshToken("").Return("empty-hash").AnyTimes()
	f.sessions.EXPECT().GetByTokenHash(gomock.Any(), "empty-hash").Return(nil, nil).AnyTimes()

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/register"},
		{http.MethodPost, "/api/v1/login"},
		{http.MethodPost, "/api/v1/refresh"},
		{http.MethodDelete, "/api/v1/session"},
		{http.MethodGet, "/api/v1/me"},
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodPost, "/api/v1/admin/role"},
		{http.MethodPatch, "/api/v1/admin/user/some-id/role"},
		{http.MethodGet, "/api/v1/admin/user/some-id/sessions"},
		{http.MethodDelete, "/api/v1/admin/user/some-id/sessions"},
		{http.MethodDelete, "/api/v1/admin/user/some-id"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s_%s_exists", tc.method, tc.path), func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			resp, err := f.app.Test(req)
			require.NoError(t, err)

			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

// TestBearerParsing covers the Authorization header edge cases the
// middleware has to reject.
func TestBearerParsing(t *testing.T) {
	testCases := []struct {
		name   string
		header string
	}{
		{name: "no space", header: "Bearertoken"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "trailing garbage", header: "Bearer token extra"},
		{name: "scheme only", header: "Bearer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newHandlerFixture(t)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			req.Header.Set(fiber.HeaderAuthorization, tc.header)

			resp, err := f.app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

// A header that is present but malformed must not fall back to the cookie.
func TestMalformedHeaderBeatsCookie(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Token abc")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesShareOneGate(t *testing.T) {
	adminPaths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodPost, "/api/v1/admin/role"},
		{http.MethodDelete, "/api/v1/admin/user/user-123"},
	}

	for _, tc := range adminPaths {
		t.Run(fmt.Sprintf("%s_%s", tc.method, tc.path), func(t *testing.T) {
			f := newHandlerFixture(t)

			f.tokens.EXPECT().VerifyAccessToken("bad").Return("", apperr.ErrInvalidToken)

			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer bad")

			resp, err := f.app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}
