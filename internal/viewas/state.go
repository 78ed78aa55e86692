// AngelaMos | 2026
// state.go

package viewas

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

const CookieName = "view_as"

// ViewingState is the client-held preview context. It is only trusted after
// the signature, the admin binding and the actual role have been rechecked.
type ViewingState struct {
	ViewingRole rbac.Role `json:"viewingRole"`
	AdminUserID string    `json:"adminUserId"`
	Timestamp   int64     `json:"timestamp"`
}

func (s ViewingState) IssuedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

var adminTargets = []rbac.Role{
	rbac.RoleLead,
	rbac.RoleTaxPreparer,
	rbac.RoleAffiliate,
	rbac.RoleClient,
}

var superAdminTargets = append(slices.Clone(adminTargets), rbac.RoleAdmin)

// AllowedTargets lists the roles the actual role may preview. Non-admin
// roles get nil.
func AllowedTargets(actual rbac.Role) []rbac.Role {
	switch actual {
	case rbac.RoleSuperAdmin:
		return slices.Clone(superAdminTargets)
	case rbac.RoleAdmin:
		return slices.Clone(adminTargets)
	default:
		return nil
	}
}

func CanView(actual, target rbac.Role) bool {
	return slices.Contains(AllowedTargets(actual), target)
}

// EffectiveRoleInfo is what layouts and handlers consume to decide which
// role's surface to render.
type EffectiveRoleInfo struct {
	ActualRole           rbac.Role `json:"actual_role"`
	EffectiveRole        rbac.Role `json:"effective_role"`
	IsViewingAsOtherRole bool      `json:"is_viewing_as_other_role"`
	ViewingRoleName      string    `json:"viewing_role_name,omitempty"`
}

func normal(actual rbac.Role) EffectiveRoleInfo {
	return EffectiveRoleInfo{ActualRole: actual, EffectiveRole: actual}
}

type Codec struct {
	signer *core.Signer
}

func NewCodec(secret string) (*Codec, error) {
	signer, err := core.NewSigner(secret, "taxdesk/view-as/v1")
	if err != nil {
		return nil, fmt.Errorf("view-as codec: %w", err)
	}
	return &Codec{signer: signer}, nil
}

func (c *Codec) Encode(s ViewingState) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode viewing state: %w", err)
	}
	signed, err := c.signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("encode viewing state: %w", err)
	}
	return signed, nil
}

func (c *Codec) Decode(value string) (ViewingState, error) {
	payload, err := c.signer.Verify(value)
	if err != nil {
		return ViewingState{}, fmt.Errorf("decode viewing state: %w", err)
	}

	var s ViewingState
	if err := json.Unmarshal(payload, &s); err != nil {
		return ViewingState{}, fmt.Errorf("decode viewing state: %w", err)
	}

	if !s.ViewingRole.Valid() || s.AdminUserID == "" || s.Timestamp <= 0 {
		return ViewingState{}, fmt.Errorf(
			"decode viewing state: incomplete: %w",
			core.ErrInvalidInput,
		)
	}

	return s, nil
}
