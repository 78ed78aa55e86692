// AngelaMos | 2026
// handler.go

package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/taxdesk/internal/access"
	"github.com/carterperez-dev/taxdesk/internal/attribution"
	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/middleware"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
	"github.com/carterperez-dev/taxdesk/internal/viewas"
)

type AttributionResolver interface {
	Resolve(ctx context.Context, query url.Values, jar cookie.Jar) attribution.Result
}

type Handler struct {
	service     *Service
	attribution AttributionResolver
	validator   *validator.Validate
}

func NewHandler(service *Service, resolver AttributionResolver) *Handler {
	return &Handler{
		service:     service,
		attribution: resolver,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	guard *access.Guard,
) {
	r.Route("/me", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(guard.Require(access.Requirement{}))

		r.Get("/", h.GetMe)
		r.With(guard.Require(access.Requirement{
			Capability: rbac.CapQuickShareLinks,
		})).Put("/tracking-code", h.ClaimTrackingCode)
		r.Post("/referrer", h.BindReferrer)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	guard *access.Guard,
) {
	r.Route("/admin/profiles", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(guard.Require(access.Requirement{}))

		admins := guard.Require(access.Requirement{
			Roles:      []rbac.Role{rbac.RoleAdmin, rbac.RoleSuperAdmin},
			Capability: rbac.CapUserManagement,
		})
		r.With(admins).Get("/", h.List)
		r.With(admins).Get("/{profileID}", h.GetProfile)

		r.With(guard.RequireProtected(viewas.OpAssignRoles)).
			Put("/{profileID}/role", h.UpdateRole)
		r.With(guard.RequireProtected(viewas.OpGrantPermissions)).
			Put("/{profileID}/permissions", h.UpdatePermissions)
		r.With(guard.RequireProtected(viewas.OpDeleteUser)).
			Delete("/{profileID}", h.Delete)
	})
}

func actorFrom(r *http.Request) Actor {
	id := middleware.GetIdentity(r.Context())
	effective := id.Role
	if res, ok := access.FromContext(r.Context()); ok {
		effective = res.Role.EffectiveRole
	}
	return Actor{Identity: id, EffectiveRole: effective}
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	res, _ := access.FromContext(r.Context())

	resp := MeResponse{
		ID:          id.ID,
		Email:       id.Email,
		DisplayName: id.DisplayName(),
		Role:        res.Role,
		RoleInfo:    rbac.Info(res.Role.EffectiveRole),
		Permissions: res.Permissions.Granted(),
	}

	p, err := h.service.Get(r.Context(), id.ID)
	switch {
	case err == nil:
		pr := ToProfileResponse(p)
		resp.Profile = &pr
	case !isNotFound(err):
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ClaimTrackingCode(w http.ResponseWriter, r *http.Request) {
	var req ClaimTrackingCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.ClaimTrackingCode(r.Context(), actorFrom(r), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

// BindReferrer attributes the caller's account. An explicit code in the
// body is resolved like a ?ref= link; otherwise the ref cookie is used.
func (h *Handler) BindReferrer(w http.ResponseWriter, r *http.Request) {
	var req BindReferrerRequest
	if r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}

	query := url.Values{}
	if req.Code != "" {
		query.Set("ref", req.Code)
	}

	res := h.attribution.Resolve(r.Context(), query, cookie.FromRequest(r))
	cookie.Write(w, res.Cookies...)

	if !res.Resolved() {
		core.OK(w, map[string]any{"attribution": nil, "bound": false})
		return
	}

	p, err := h.service.BindReferrer(r.Context(), actorFrom(r), res.Attribution)
	if errors.Is(err, core.ErrConflict) {
		core.Conflict(w, "a referrer is already recorded for this account")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, map[string]any{
		"attribution": res.Attribution,
		"bound":       true,
		"profile":     ToProfileResponse(p),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Page:     parseIntQuery(q.Get("page"), 1),
		PageSize: parseIntQuery(q.Get("page_size"), 20),
		Search:   q.Get("search"),
		Role:     q.Get("role"),
	}
	params.Normalize()

	profiles, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToProfileResponseList(profiles), params.Page, params.PageSize, total)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		core.BadRequest(w, "unknown role")
		return
	}

	p, err := h.service.SetRole(r.Context(), actorFrom(r), chi.URLParam(r, "profileID"), role)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var req UpdatePermissionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.SetPermissions(
		r.Context(),
		actorFrom(r),
		chi.URLParam(r, "profileID"),
		rbac.Overrides(req.Permissions),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "profileID")); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case isNotFound(err):
		core.NotFound(w, "profile")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "insufficient permissions")
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.DuplicateError("tracking code"))
	case errors.Is(err, core.ErrConflict):
		core.Conflict(w, "conflicting update")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid input")
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
