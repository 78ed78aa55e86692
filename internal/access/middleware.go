// AngelaMos | 2026
// middleware.go

package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/middleware"
	"github.com/carterperez-dev/taxdesk/internal/viewas"
)

type contextKey string

const resultKey contextKey = "access_result"

// Surfaces are where browser requests are sent when the gate says no.
type Surfaces struct {
	SignInPath    string
	ForbiddenPath string
}

type Guard struct {
	gate     *Gate
	surfaces Surfaces
}

func NewGuard(gate *Gate, surfaces Surfaces) *Guard {
	return &Guard{gate: gate, surfaces: surfaces}
}

// Require gates a route. Allowed requests carry the Result in their
// context. Denied API requests get 401 or 403 envelopes and browser
// requests are redirected.
func (g *Guard) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := g.gate.Check(
				middleware.GetIdentity(r.Context()),
				cookie.FromRequest(r),
				req,
			)

			switch res.Decision {
			case Allow:
				next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), res)))
			case RedirectSignIn:
				g.deny(w, r, RedirectSignIn)
			default:
				g.deny(w, r, RedirectForbidden)
			}
		})
	}
}

// RequireProtected authorizes op against the caller's actual role. The
// view-as cookie plays no part.
func (g *Guard) RequireProtected(
	op viewas.ProtectedOperation,
) func(http.Handler) http.Handler {
	if !viewas.IsProtected(op) {
		panic(fmt.Sprintf("access: %q is not a protected operation", op))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := viewas.AuthorizeProtected(middleware.GetIdentity(r.Context()), op)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, core.ErrUnauthorized):
				g.deny(w, r, RedirectSignIn)
			case errors.Is(err, core.ErrForbidden):
				g.deny(w, r, RedirectForbidden)
			default:
				core.InternalServerError(w, err)
			}
		})
	}
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, d Decision) {
	if wantsJSON(r) {
		if d == RedirectSignIn {
			core.Unauthorized(w, "authentication required")
			return
		}
		core.Forbidden(w, "you do not have access to this resource")
		return
	}

	target := g.surfaces.ForbiddenPath
	if d == RedirectSignIn {
		target = g.surfaces.SignInPath + "?" + url.Values{
			"redirect_url": []string{r.URL.RequestURI()},
		}.Encode()
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/v1/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") &&
		!strings.Contains(accept, "text/html")
}

func WithResult(ctx context.Context, res Result) context.Context {
	return context.WithValue(ctx, resultKey, res)
}

func FromContext(ctx context.Context) (Result, bool) {
	res, ok := ctx.Value(resultKey).(Result)
	return res, ok
}
