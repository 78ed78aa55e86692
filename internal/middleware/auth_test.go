// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type stubLoader struct {
	identity *rbac.Identity
	err      error
	calls    int
	token    string
}

func (s *stubLoader) Load(_ context.Context, token string) (*rbac.Identity, error) {
	s.calls++
	s.token = token
	return s.identity, s.err
}

func identityEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		if id == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(id.ID))
	})
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestAuthenticator_MissingToken(t *testing.T) {
	loader := &stubLoader{}
	h := Authenticator(loader)(identityEcho(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeErrorCode(t, rec))
	assert.Zero(t, loader.calls)
}

func TestAuthenticator_LoadsBearerToken(t *testing.T) {
	loader := &stubLoader{identity: &rbac.Identity{ID: "user_1", Role: rbac.RoleClient}}
	h := Authenticator(loader)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_1", rec.Body.String())
	assert.Equal(t, "tok-123", loader.token)
}

func TestAuthenticator_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"expired", core.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"revoked", core.ErrTokenRevoked, http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"invalid", core.ErrTokenInvalid, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"incomplete identity", core.ErrInvalidInput, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unavailable", core.ErrUnavailable, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"app error", core.ForbiddenError("nope"), http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticator(&stubLoader{err: tt.err})(identityEcho(t))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer tok")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeErrorCode(t, rec))
		})
	}
}

func TestAuthenticator_ReusesAttachedIdentity(t *testing.T) {
	loader := &stubLoader{}
	h := Authenticator(loader)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), &rbac.Identity{ID: "already"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "already", rec.Body.String())
	assert.Zero(t, loader.calls)
}

func TestOptionalAuth(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		h := OptionalAuth(&stubLoader{})(identityEcho(t))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("bad token passes through", func(t *testing.T) {
		h := OptionalAuth(&stubLoader{err: core.ErrTokenInvalid})(identityEcho(t))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "junk"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("attaches identity from cookie", func(t *testing.T) {
		loader := &stubLoader{identity: &rbac.Identity{ID: "user_2"}}
		h := OptionalAuth(loader)(identityEcho(t))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-tok"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "user_2", rec.Body.String())
		assert.Equal(t, "cookie-tok", loader.token)
	})
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"bearer lowercase", "bearer abc", "", "abc"},
		{"basic scheme", "Basic abc", "", ""},
		{"header wins over cookie", "Bearer abc", "xyz", "abc"},
		{"cookie", "", "xyz", "xyz"},
		{"none", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, ExtractToken(req))
		})
	}
}

func TestIdentityAccessors(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsAuthenticated(ctx))
	assert.Empty(t, GetUserID(ctx))

	ctx = WithIdentity(ctx, &rbac.Identity{ID: "u", Role: rbac.RoleAffiliate})
	assert.True(t, IsAuthenticated(ctx))
	assert.Equal(t, "u", GetUserID(ctx))
	assert.Equal(t, rbac.RoleAffiliate, GetIdentity(ctx).Role)
}
