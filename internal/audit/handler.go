// AngelaMos | 2026
// handler.go

package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/taxdesk/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the audit trail. guard must enforce the
// view_audit_logs protected operation.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, guard func(http.Handler) http.Handler,
) {
	r.Route("/admin/audit", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(guard)

		r.Get("/", h.List)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Page:     parseIntQuery(q.Get("page"), 1),
		PageSize: parseIntQuery(q.Get("page_size"), 50),
		ActorID:  q.Get("actor_id"),
		TargetID: q.Get("target_id"),
		Action:   q.Get("action"),
	}
	params.Normalize()

	entries, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if entries == nil {
		entries = []Entry{}
	}

	core.Paginated(w, entries, params.Page, params.PageSize, total)
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
