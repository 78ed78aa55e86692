// AngelaMos | 2026
// middleware_test.go

package access

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/taxdesk/internal/middleware"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
	"github.com/carterperez-dev/taxdesk/internal/viewas"
)

var surfaces = Surfaces{SignInPath: "/auth/signin", ForbiddenPath: "/forbidden"}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context())
		assert.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, r *http.Request, id *rbac.Identity) *httptest.ResponseRecorder {
	if id != nil {
		r = r.WithContext(middleware.WithIdentity(r.Context(), id))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRequireBrowserRedirects(t *testing.T) {
	guard := NewGuard(NewGate(newTestViews(t)), surfaces)
	h := guard.Require(adminOnly)(okHandler(t))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/dashboard/admin?tab=users", nil), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/signin", loc.Path)
	assert.Equal(t, "/dashboard/admin?tab=users", loc.Query().Get("redirect_url"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil),
		&rbac.Identity{ID: "user_tp", Role: rbac.RoleTaxPreparer})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/forbidden", rec.Header().Get("Location"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil),
		&rbac.Identity{ID: "user_admin", Role: rbac.RoleAdmin})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAPIReturnsStatusCodes(t *testing.T) {
	guard := NewGuard(NewGate(newTestViews(t)), surfaces)
	h := guard.Require(Requirement{Capability: rbac.CapLeads})(okHandler(t))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/leads", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/v1/leads", nil),
		&rbac.Identity{ID: "user_client", Role: rbac.RoleClient})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req.Header.Set("Accept", "application/json")
	rec = serve(h, req, &rbac.Identity{ID: "user_client", Role: rbac.RoleClient})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireProtectedIgnoresPreview(t *testing.T) {
	views := newTestViews(t)
	guard := NewGuard(NewGate(views), surfaces)
	reached := false
	h := guard.RequireProtected(viewas.OpDeleteUser)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			reached = true
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	admin := &rbac.Identity{ID: "user_admin", Role: rbac.RoleAdmin}
	c, _, err := views.Switch(admin, rbac.RoleLead)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/profiles/p1", nil)
	req.AddCookie(c)
	rec := serve(h, req, admin)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, reached)
}

func TestRequireProtectedDeniesNonAdmin(t *testing.T) {
	guard := NewGuard(NewGate(newTestViews(t)), surfaces)
	h := guard.RequireProtected(viewas.OpViewAuditLogs)(okHandler(t))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/admin/audit", nil),
		&rbac.Identity{ID: "user_aff", Role: rbac.RoleAffiliate})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/v1/admin/audit", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireProtectedPanicsOnUnknownOperation(t *testing.T) {
	guard := NewGuard(NewGate(newTestViews(t)), surfaces)
	assert.Panics(t, func() {
		guard.RequireProtected("view_dashboard")
	})
}
