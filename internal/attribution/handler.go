// AngelaMos | 2026
// handler.go

package attribution

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
)

type Handler struct {
	resolver     *Resolver
	recorder     *ClickRecorder
	landingPath  string
	notFoundPath string
}

type HandlerConfig struct {
	LandingPath  string
	NotFoundPath string
}

func NewHandler(
	resolver *Resolver,
	recorder *ClickRecorder,
	cfg HandlerConfig,
) *Handler {
	return &Handler{
		resolver:     resolver,
		recorder:     recorder,
		landingPath:  cfg.LandingPath,
		notFoundPath: cfg.NotFoundPath,
	}
}

// RegisterRoutes mounts the JSON resolution endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/attribution", h.Current)
}

// RegisterLinkRoutes mounts vanity links at the site root.
func (h *Handler) RegisterLinkRoutes(
	r chi.Router,
	limiter func(http.Handler) http.Handler,
) {
	r.With(limiter).Get("/r/{code}", h.Link)
}

// Current resolves the visitor from ?ref=, ?code= or the ref cookie. An
// organic visit is a success with a null attribution.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve(r.Context(), r.URL.Query(), cookie.FromRequest(r))

	cookie.Write(w, res.Cookies...)
	h.recorder.Record(r.Context(), res, r)

	core.OK(w, res)
}

// Link handles /r/{code}. Reserved words and unknown codes go to the
// not-found surface whatever the ref cookie says. When the store cannot
// answer the visitor still lands, unattributed.
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if !ValidCode(code) {
		http.Redirect(w, r, h.notFoundPath, http.StatusFound)
		return
	}

	a, err := h.resolver.Lookup(r.Context(), code)
	if err != nil {
		http.Redirect(w, r, h.landingPath, http.StatusFound)
		return
	}
	if a == nil {
		http.Redirect(w, r, h.notFoundPath, http.StatusFound)
		return
	}

	res := h.resolver.Apply(r.Context(), a, cookie.FromRequest(r))

	cookie.Write(w, res.Cookies...)
	h.recorder.Record(r.Context(), res, r)

	http.Redirect(w, r, h.landingPath, http.StatusFound)
}
