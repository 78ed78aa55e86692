// AngelaMos | 2026
// resolver.go

package viewas

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

const clockSkew = time.Minute

type Resolver struct {
	codec  *Codec
	policy cookie.Policy
	maxAge time.Duration
	now    func() time.Time
}

type ResolverConfig struct {
	Codec  *Codec
	Policy cookie.Policy
	MaxAge time.Duration
	Now    func() time.Time
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Resolver{
		codec:  cfg.Codec,
		policy: cfg.Policy,
		maxAge: cfg.MaxAge,
		now:    cfg.Now,
	}
}

// Resolve computes the effective role for this request. Any viewing state
// that fails a check is treated as absent.
func (r *Resolver) Resolve(id *rbac.Identity, jar cookie.Jar) EffectiveRoleInfo {
	if id == nil {
		return EffectiveRoleInfo{}
	}

	raw, present := jar.Get(CookieName)
	if !present {
		return normal(id.Role)
	}

	if !id.Role.IsAdmin() {
		core.ViewAsTransitions.WithLabelValues("ignored_non_admin").Inc()
		slog.Debug("ignoring view-as cookie for non-admin",
			"user_id", id.ID,
			"role", id.Role,
		)
		return normal(id.Role)
	}

	state, err := r.codec.Decode(raw)
	if err != nil {
		core.ViewAsTransitions.WithLabelValues("rejected").Inc()
		slog.Debug("rejecting view-as cookie", "user_id", id.ID, "error", err)
		return normal(id.Role)
	}

	if reason := r.check(id, state); reason != "" {
		core.ViewAsTransitions.WithLabelValues("rejected").Inc()
		slog.Debug("rejecting view-as state",
			"user_id", id.ID,
			"reason", reason,
		)
		return normal(id.Role)
	}

	if state.ViewingRole == id.Role {
		return normal(id.Role)
	}

	return EffectiveRoleInfo{
		ActualRole:           id.Role,
		EffectiveRole:        state.ViewingRole,
		IsViewingAsOtherRole: true,
		ViewingRoleName:      rbac.Info(state.ViewingRole).Label,
	}
}

func (r *Resolver) check(id *rbac.Identity, s ViewingState) string {
	if s.AdminUserID != id.ID {
		return "admin mismatch"
	}

	issued := s.IssuedAt()
	now := r.now()
	if issued.After(now.Add(clockSkew)) {
		return "issued in the future"
	}
	if now.Sub(issued) > r.maxAge {
		return "expired"
	}

	if !CanView(id.Role, s.ViewingRole) {
		return "target not allowed"
	}

	return ""
}

// Switch starts a preview of target and returns the cookie to set.
func (r *Resolver) Switch(
	id *rbac.Identity,
	target rbac.Role,
) (*http.Cookie, ViewingState, error) {
	if id == nil {
		return nil, ViewingState{}, fmt.Errorf("switch role: %w", core.ErrUnauthorized)
	}

	if !id.Role.IsAdmin() {
		return nil, ViewingState{}, fmt.Errorf("switch role: %w", core.ErrForbidden)
	}

	if !CanView(id.Role, target) {
		return nil, ViewingState{}, fmt.Errorf(
			"switch role: %s may not view as %q: %w",
			id.Role,
			target,
			core.ErrInvalidInput,
		)
	}

	state := ViewingState{
		ViewingRole: target,
		AdminUserID: id.ID,
		Timestamp:   r.now().UnixMilli(),
	}

	value, err := r.codec.Encode(state)
	if err != nil {
		return nil, ViewingState{}, fmt.Errorf("switch role: %w", err)
	}

	core.ViewAsTransitions.WithLabelValues("switch").Inc()
	return r.policy.New(CookieName, value, r.maxAge), state, nil
}

func (r *Resolver) Clear() *http.Cookie {
	core.ViewAsTransitions.WithLabelValues("revert").Inc()
	return r.policy.Expire(CookieName)
}
