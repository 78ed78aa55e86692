// AngelaMos | 2026
// resolver.go

package attribution

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/taxdesk/internal/config"
	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
)

// Result is the outcome of one resolution. A nil Attribution means the
// visit is organic. Cookies must be written to the response by the caller.
type Result struct {
	Attribution *Attribution   `json:"attribution"`
	Source      Source         `json:"source"`
	ClickID     string         `json:"click_id,omitempty"`
	Cookies     []*http.Cookie `json:"-"`
}

func (r Result) Resolved() bool {
	return r.Attribution != nil
}

type ResolverConfig struct {
	Finder ProfileFinder
	Policy cookie.Policy
	MaxAge time.Duration
	// Mode is config.PolicyLastClick or config.PolicyFirstClick.
	Mode string
}

type Resolver struct {
	finder     ProfileFinder
	policy     cookie.Policy
	maxAge     time.Duration
	firstClick bool
}

func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		finder:     cfg.Finder,
		policy:     cfg.Policy,
		maxAge:     cfg.MaxAge,
		firstClick: cfg.Mode == config.PolicyFirstClick,
	}
}

// QueryCode returns the explicit code on the request, preferring ref over
// code.
func QueryCode(query url.Values) (string, bool) {
	for _, key := range []string{"ref", "code"} {
		if v := normalizeCode(query.Get(key)); v != "" {
			return v, true
		}
	}
	return "", false
}

// Resolve attributes the visit. An explicit query code wins and is
// persisted when it resolves. Otherwise the ref cookie is revalidated
// against the store. Lookup failures degrade to no attribution.
func (r *Resolver) Resolve(
	ctx context.Context,
	query url.Values,
	jar cookie.Jar,
) Result {
	ctx, span := core.StartSpan(ctx, "attribution.resolve")
	defer span.End()

	if code, ok := QueryCode(query); ok {
		if r.firstClick {
			if res, kept := r.existing(ctx, jar); kept {
				observe(res, "kept_first_click")
				return res
			}
		}

		if a, _ := r.Lookup(ctx, code); a != nil {
			return r.fresh(ctx, a)
		}

		slog.DebugContext(ctx, "query attribution code unresolved", "code", code)
	}

	res := r.fromCookie(ctx, jar)
	outcome := "unresolved"
	if res.Resolved() {
		outcome = "resolved"
	}
	observe(res, outcome)
	return res
}

// Apply attributes a visit to an attribution Lookup already found, as a
// vanity link does. Under first-click a still valid cookie is kept.
func (r *Resolver) Apply(ctx context.Context, a *Attribution, jar cookie.Jar) Result {
	ctx, span := core.StartSpan(ctx, "attribution.apply")
	defer span.End()

	if r.firstClick {
		if res, kept := r.existing(ctx, jar); kept {
			observe(res, "kept_first_click")
			return res
		}
	}
	return r.fresh(ctx, a)
}

func (r *Resolver) fresh(ctx context.Context, a *Attribution) Result {
	clickID := core.NewULID()
	res := Result{
		Attribution: a,
		Source:      SourceQuery,
		ClickID:     clickID,
		Cookies: []*http.Cookie{
			r.policy.New(RefCookie, a.ReferrerUsername, r.maxAge),
			r.policy.New(RefClickCookie, clickID, r.maxAge),
		},
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("attribution.source", string(SourceQuery)),
		attribute.String("attribution.namespace", string(a.Namespace)),
	)
	observe(res, "resolved")
	return res
}

func (r *Resolver) existing(ctx context.Context, jar cookie.Jar) (Result, bool) {
	res := r.fromCookie(ctx, jar)
	return res, res.Resolved()
}

func (r *Resolver) fromCookie(ctx context.Context, jar cookie.Jar) Result {
	code, ok := jar.Get(RefCookie)
	if !ok {
		return Result{Source: SourceNone}
	}

	a, err := r.Lookup(ctx, code)
	if a != nil {
		clickID, _ := jar.Get(RefClickCookie)
		return Result{Attribution: a, Source: SourceCookie, ClickID: clickID}
	}

	res := Result{Source: SourceNone}
	if err == nil {
		// The code no longer resolves, so the stale cookies are dropped.
		res.Cookies = []*http.Cookie{
			r.policy.Expire(RefCookie),
			r.policy.Expire(RefClickCookie),
		}
	}
	return res
}

// Lookup returns a nil Attribution and nil error for codes that are
// malformed, reserved or unknown. A non-nil error means the store could not
// answer.
func (r *Resolver) Lookup(ctx context.Context, code string) (*Attribution, error) {
	if !ValidCode(code) {
		return nil, nil
	}

	m, err := r.finder.FindByAnyTrackingCode(ctx, code)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		slog.WarnContext(ctx, "attribution lookup failed",
			"code", code,
			"error", err,
		)
		return nil, err
	}

	return fromMatch(m), nil
}

func observe(res Result, outcome string) {
	core.AttributionResolutions.WithLabelValues(string(res.Source), outcome).Inc()
}
