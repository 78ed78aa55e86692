// AngelaMos | 2026
// role.go

package rbac

import (
	"fmt"
	"strings"

	"github.com/carterperez-dev/taxdesk/internal/core"
)

// Role is the coarse account category stored on a profile. The set is
// closed; capabilities are listed per role, not derived from an ordering.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleTaxPreparer Role = "tax_preparer"
	RoleAffiliate   Role = "affiliate"
	RoleLead        Role = "lead"
	RoleClient      Role = "client"
)

var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleTaxPreparer,
	RoleAffiliate,
	RoleLead,
	RoleClient,
}

type RoleInfo struct {
	Role        Role   `json:"role"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var roleInfo = map[Role]RoleInfo{
	RoleSuperAdmin: {
		Role:        RoleSuperAdmin,
		Label:       "Super Admin",
		Description: "Full platform control including system settings and database tools",
	},
	RoleAdmin: {
		Role:        RoleAdmin,
		Label:       "Admin",
		Description: "Manages users, payouts, content and marketing across the platform",
	},
	RoleTaxPreparer: {
		Role:        RoleTaxPreparer,
		Label:       "Tax Preparer",
		Description: "Works client returns, leads, calendar and the client file center",
	},
	RoleAffiliate: {
		Role:        RoleAffiliate,
		Label:       "Affiliate",
		Description: "Promotes the service with tracking links and earns referral commissions",
	},
	RoleLead: {
		Role:        RoleLead,
		Label:       "Lead",
		Description: "Prospective client who has started but not completed onboarding",
	},
	RoleClient: {
		Role:        RoleClient,
		Label:       "Client",
		Description: "Taxpayer with an active return, documents and appointments",
	},
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	_, ok := roleInfo[r]
	return ok
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Info returns display metadata. An unknown role is a programming error.
func Info(r Role) RoleInfo {
	info, ok := roleInfo[r]
	if !ok {
		panic(fmt.Sprintf("rbac: unknown role %q", string(r)))
	}
	return info
}

// ParseRole is the boundary check for role values arriving from tokens,
// request bodies and database rows.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("parse role %q: %w", s, core.ErrInvalidInput)
	}
	return r, nil
}
