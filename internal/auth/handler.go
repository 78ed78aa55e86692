// AngelaMos | 2026
// handler.go

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/middleware"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type Handler struct {
	verifier    *Verifier
	revocations Revocations
	policy      cookie.Policy
}

func NewHandler(
	verifier *Verifier,
	revocations Revocations,
	policy cookie.Policy,
) *Handler {
	return &Handler{
		verifier:    verifier,
		revocations: revocations,
		policy:      policy,
	}
}

type SessionResponse struct {
	Identity    *rbac.Identity    `json:"identity"`
	RoleInfo    rbac.RoleInfo     `json:"role_info"`
	Permissions []rbac.Capability `json:"permissions"`
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/session", h.Session)
		r.Post("/logout", h.Logout)
	})
}

// Session reports the caller's actual identity, ignoring any view-as state.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, SessionResponse{
		Identity:    id,
		RoleInfo:    rbac.Info(id.Role),
		Permissions: rbac.ResolveEffectivePermissions(id.Role, id.Overrides).Granted(),
	})
}

// Logout revokes the presented token until it would have expired and
// clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	vt, err := h.verifier.Verify(r.Context(), middleware.ExtractToken(r))
	if err != nil {
		core.JSONError(w, core.TokenInvalidError())
		return
	}

	if vt.ID != "" {
		if err := h.revocations.Revoke(r.Context(), vt.ID, vt.ExpiresAt); err != nil {
			core.InternalServerError(w, err)
			return
		}
	}

	cookie.Write(w, h.policy.Expire(middleware.SessionCookieName))
	core.NoContent(w)
}
