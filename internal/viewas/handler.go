// AngelaMos | 2026
// handler.go

package viewas

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/taxdesk/internal/audit"
	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/middleware"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type Auditor interface {
	Log(
		ctx context.Context,
		actor audit.Actor,
		action, targetID string,
		metadata audit.Metadata,
	)
}

type Handler struct {
	resolver  *Resolver
	auditor   Auditor
	validator *validator.Validate
}

func NewHandler(resolver *Resolver, auditor Auditor) *Handler {
	return &Handler{
		resolver:  resolver,
		auditor:   auditor,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type SwitchRequest struct {
	Role string `json:"role" validate:"required,max=32"`
}

type StatusResponse struct {
	EffectiveRoleInfo
	AvailableRoles []rbac.RoleInfo `json:"available_roles"`
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/view-as", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Status)
		r.Post("/", h.Switch)
		r.Delete("/", h.Stop)
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	info := h.resolver.Resolve(id, cookie.FromRequest(r))

	targets := AllowedTargets(id.Role)
	available := make([]rbac.RoleInfo, 0, len(targets))
	for _, t := range targets {
		available = append(available, rbac.Info(t))
	}

	core.OK(w, StatusResponse{
		EffectiveRoleInfo: info,
		AvailableRoles:    available,
	})
}

func (h *Handler) Switch(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	target, err := rbac.ParseRole(req.Role)
	if err != nil {
		core.BadRequest(w, "unknown role")
		return
	}

	previous := h.resolver.Resolve(id, cookie.FromRequest(r))

	c, _, err := h.resolver.Switch(id, target)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "only administrators can view as another role")
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "role cannot be previewed")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	cookie.Write(w, c)

	h.auditor.Log(r.Context(), actorOf(id, previous),
		audit.ActionViewAsStart, "",
		audit.Metadata{"viewing_role": target.String()},
	)

	core.OK(w, EffectiveRoleInfo{
		ActualRole:           id.Role,
		EffectiveRole:        target,
		IsViewingAsOtherRole: true,
		ViewingRoleName:      rbac.Info(target).Label,
	})
}

// Stop clears the preview. It is safe to call when nothing is being viewed.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	previous := h.resolver.Resolve(id, cookie.FromRequest(r))

	cookie.Write(w, h.resolver.Clear())

	if previous.IsViewingAsOtherRole {
		h.auditor.Log(r.Context(), actorOf(id, previous),
			audit.ActionViewAsStop, "",
			audit.Metadata{"viewing_role": previous.EffectiveRole.String()},
		)
	}

	core.OK(w, normal(id.Role))
}

func actorOf(id *rbac.Identity, info EffectiveRoleInfo) audit.Actor {
	return audit.Actor{
		ID:            id.ID,
		Role:          id.Role.String(),
		EffectiveRole: info.EffectiveRole.String(),
	}
}
