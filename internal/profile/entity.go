// AngelaMos | 2026
// entity.go

package profile

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type Profile struct {
	ID                 string              `db:"id"`
	Email              string              `db:"email"`
	FirstName          string              `db:"first_name"`
	LastName           string              `db:"last_name"`
	Role               string              `db:"role"`
	Overrides          PermissionOverrides `db:"permission_overrides"`
	TrackingCode       *string             `db:"tracking_code"`
	CustomTrackingCode *string             `db:"custom_tracking_code"`
	ShortLinkUsername  *string             `db:"short_link_username"`
	ReferredByUsername *string             `db:"referred_by_username"`
	ReferredByType     *string             `db:"referred_by_type"`
	CreatedAt          time.Time           `db:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at"`
	DeletedAt          *time.Time          `db:"deleted_at"`
}

func (p *Profile) HasReferrer() bool {
	return p.ReferredByUsername != nil && *p.ReferredByUsername != ""
}

// PermissionOverrides is the JSONB column holding per-user overrides.
type PermissionOverrides map[string]bool

func (o PermissionOverrides) Value() (driver.Value, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(o)
}

func (o *PermissionOverrides) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan permission overrides: unsupported type %T", src)
	}

	var decoded map[string]bool
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("scan permission overrides: %w", err)
	}
	if len(decoded) == 0 {
		decoded = nil
	}
	*o = decoded
	return nil
}

func (o PermissionOverrides) Rbac() rbac.Overrides {
	if o == nil {
		return nil
	}
	return rbac.Overrides(o)
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
