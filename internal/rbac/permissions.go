// AngelaMos | 2026
// permissions.go

package rbac

import (
	"fmt"
	"slices"
)

type Capability string

const (
	CapDashboard          Capability = "dashboard"
	CapUserManagement     Capability = "userManagement"
	CapClientFileCenter   Capability = "clientFileCenter"
	CapCalendar           Capability = "calendar"
	CapAcademy            Capability = "academy"
	CapQuickShareLinks    Capability = "quickShareLinks"
	CapDatabaseManagement Capability = "databaseManagement"
	CapSettings           Capability = "settings"
	CapAnalytics          Capability = "analytics"
	CapLeads              Capability = "leads"
	CapClients            Capability = "clients"
	CapDocuments          Capability = "documents"
	CapMarketingHub       Capability = "marketingHub"
	CapEarnings           Capability = "earnings"
	CapReferrals          Capability = "referrals"
	CapPayouts            Capability = "payouts"
	CapStore              Capability = "store"
	CapEmailCampaigns     Capability = "emailCampaigns"
	CapAuditLogs          Capability = "auditLogs"
)

var AllCapabilities = []Capability{
	CapDashboard,
	CapUserManagement,
	CapClientFileCenter,
	CapCalendar,
	CapAcademy,
	CapQuickShareLinks,
	CapDatabaseManagement,
	CapSettings,
	CapAnalytics,
	CapLeads,
	CapClients,
	CapDocuments,
	CapMarketingHub,
	CapEarnings,
	CapReferrals,
	CapPayouts,
	CapStore,
	CapEmailCampaigns,
	CapAuditLogs,
}

// PermissionSet is total: every capability in AllCapabilities has a value.
type PermissionSet map[Capability]bool

// Overrides is a partial set keyed by raw capability name as stored on the
// profile. Keys that are not known capabilities are ignored when resolving.
type Overrides map[string]bool

func (p PermissionSet) Allows(c Capability) bool {
	return p[c]
}

func (p PermissionSet) Granted() []Capability {
	granted := make([]Capability, 0, len(p))
	for _, c := range AllCapabilities {
		if p[c] {
			granted = append(granted, c)
		}
	}
	return granted
}

func (p PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(AllCapabilities))
	for _, c := range AllCapabilities {
		out[c] = p[c]
	}
	return out
}

func IsCapability(name string) bool {
	return slices.Contains(AllCapabilities, Capability(name))
}

var roleGrants = map[Role][]Capability{
	RoleSuperAdmin: AllCapabilities,
	RoleAdmin: {
		CapDashboard,
		CapUserManagement,
		CapClientFileCenter,
		CapCalendar,
		CapAcademy,
		CapQuickShareLinks,
		CapAnalytics,
		CapLeads,
		CapClients,
		CapDocuments,
		CapMarketingHub,
		CapEarnings,
		CapReferrals,
		CapPayouts,
		CapStore,
		CapEmailCampaigns,
		CapAuditLogs,
	},
	RoleTaxPreparer: {
		CapDashboard,
		CapClientFileCenter,
		CapCalendar,
		CapAcademy,
		CapQuickShareLinks,
		CapAnalytics,
		CapLeads,
		CapClients,
		CapDocuments,
		CapMarketingHub,
		CapEarnings,
		CapReferrals,
		CapStore,
	},
	RoleAffiliate: {
		CapDashboard,
		CapAcademy,
		CapQuickShareLinks,
		CapMarketingHub,
		CapEarnings,
		CapReferrals,
		CapPayouts,
		CapStore,
	},
	RoleLead: {
		CapDashboard,
		CapCalendar,
		CapDocuments,
	},
	RoleClient: {
		CapDashboard,
		CapCalendar,
		CapDocuments,
		CapReferrals,
		CapStore,
	},
}

var defaults = buildDefaults()

func buildDefaults() map[Role]PermissionSet {
	out := make(map[Role]PermissionSet, len(AllRoles))
	for _, role := range AllRoles {
		set := make(PermissionSet, len(AllCapabilities))
		for _, c := range AllCapabilities {
			set[c] = false
		}
		for _, c := range roleGrants[role] {
			set[c] = true
		}
		out[role] = set
	}
	return out
}

// DefaultPermissions returns a fresh copy of the role's default set. An
// unknown role is a programming error, not a denial.
func DefaultPermissions(r Role) PermissionSet {
	set, ok := defaults[r]
	if !ok {
		panic(fmt.Sprintf("rbac: no default permissions for role %q", string(r)))
	}
	return set.Clone()
}

// ResolveEffectivePermissions applies overrides on top of the role defaults.
// It is a shallow replace per key, so an override can grant or revoke.
func ResolveEffectivePermissions(r Role, overrides Overrides) PermissionSet {
	set := DefaultPermissions(r)
	for key, value := range overrides {
		c := Capability(key)
		if _, known := set[c]; !known {
			continue
		}
		set[c] = value
	}
	return set
}

// SanitizeOverrides drops unknown keys. Used before persisting overrides so
// stored data stays within the catalog.
func SanitizeOverrides(o Overrides) (Overrides, []string) {
	clean := make(Overrides, len(o))
	var unknown []string
	for key, value := range o {
		if !IsCapability(key) {
			unknown = append(unknown, key)
			continue
		}
		clean[key] = value
	}
	slices.Sort(unknown)
	return clean, unknown
}
