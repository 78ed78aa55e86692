// AngelaMos | 2026
// gate.go

package access

import (
	"slices"

	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
	"github.com/carterperez-dev/taxdesk/internal/viewas"
)

type Decision string

const (
	Allow             Decision = "allow"
	RedirectSignIn    Decision = "redirect_signin"
	RedirectForbidden Decision = "redirect_forbidden"
)

// Requirement is what a route demands. An empty Roles list admits every
// role and an empty Capability skips the capability check.
type Requirement struct {
	Roles      []rbac.Role
	Capability rbac.Capability
}

type Result struct {
	Decision    Decision                 `json:"decision"`
	Role        viewas.EffectiveRoleInfo `json:"role"`
	Permissions rbac.PermissionSet       `json:"permissions,omitempty"`
}

func (r Result) Allowed() bool {
	return r.Decision == Allow
}

type Gate struct {
	views *viewas.Resolver
}

func NewGate(views *viewas.Resolver) *Gate {
	return &Gate{views: views}
}

// Check runs on every request. Nothing is cached because role and
// overrides may change between requests.
func (g *Gate) Check(
	id *rbac.Identity,
	jar cookie.Jar,
	req Requirement,
) Result {
	if id == nil {
		return decide(Result{Decision: RedirectSignIn})
	}

	info := g.views.Resolve(id, jar)
	res := Result{
		Role:        info,
		Permissions: EffectivePermissions(id, info),
	}

	if len(req.Roles) > 0 && !slices.Contains(req.Roles, info.EffectiveRole) {
		res.Decision = RedirectForbidden
		return decide(res)
	}

	if req.Capability != "" && !res.Permissions.Allows(req.Capability) {
		res.Decision = RedirectForbidden
		return decide(res)
	}

	res.Decision = Allow
	return decide(res)
}

// EffectivePermissions is the permission set the request runs with. While
// previewing it is the viewed role's defaults; the admin's own overrides do
// not follow them into the preview.
func EffectivePermissions(
	id *rbac.Identity,
	info viewas.EffectiveRoleInfo,
) rbac.PermissionSet {
	if info.IsViewingAsOtherRole {
		return rbac.DefaultPermissions(info.EffectiveRole)
	}
	return rbac.ResolveEffectivePermissions(id.Role, id.Overrides)
}

func decide(res Result) Result {
	core.AccessDecisions.WithLabelValues(string(res.Decision)).Inc()
	return res
}
