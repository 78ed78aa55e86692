// AngelaMos | 2026
// protected.go

package viewas

import (
	"fmt"

	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

// ProtectedOperation names an action that is always authorized against the
// caller's actual role, whatever role is being previewed.
type ProtectedOperation string

const (
	OpDeleteUser           ProtectedOperation = "delete_user"
	OpModifyPayment        ProtectedOperation = "modify_payment"
	OpChangeSystemSettings ProtectedOperation = "change_system_settings"
	OpGrantPermissions     ProtectedOperation = "grant_permissions"
	OpAssignRoles          ProtectedOperation = "assign_roles"
	OpAccessDatabase       ProtectedOperation = "access_database"
	OpViewAuditLogs        ProtectedOperation = "view_audit_logs"
)

var protectedCapability = map[ProtectedOperation]rbac.Capability{
	OpDeleteUser:           rbac.CapUserManagement,
	OpModifyPayment:        rbac.CapPayouts,
	OpChangeSystemSettings: rbac.CapSettings,
	OpGrantPermissions:     rbac.CapUserManagement,
	OpAssignRoles:          rbac.CapUserManagement,
	OpAccessDatabase:       rbac.CapDatabaseManagement,
	OpViewAuditLogs:        rbac.CapAuditLogs,
}

func IsProtected(op ProtectedOperation) bool {
	_, ok := protectedCapability[op]
	return ok
}

// AuthorizeProtected takes the identity, never an EffectiveRoleInfo, so the
// previewed role cannot take part in the decision.
func AuthorizeProtected(id *rbac.Identity, op ProtectedOperation) error {
	capability, ok := protectedCapability[op]
	if !ok {
		return fmt.Errorf(
			"authorize %q: unknown protected operation: %w",
			op,
			core.ErrInvalidInput,
		)
	}

	if id == nil {
		return fmt.Errorf("authorize %s: %w", op, core.ErrUnauthorized)
	}

	if !id.Role.IsAdmin() {
		core.ProtectedOperationDenials.WithLabelValues(string(op)).Inc()
		return fmt.Errorf("authorize %s: %w", op, core.ErrForbidden)
	}

	perms := rbac.ResolveEffectivePermissions(id.Role, id.Overrides)
	if !perms.Allows(capability) {
		core.ProtectedOperationDenials.WithLabelValues(string(op)).Inc()
		return fmt.Errorf(
			"authorize %s: missing %s: %w",
			op,
			capability,
			core.ErrForbidden,
		)
	}

	return nil
}
