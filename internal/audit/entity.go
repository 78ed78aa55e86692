// AngelaMos | 2026
// entity.go

package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionViewAsStart        = "view_as.start"
	ActionViewAsStop         = "view_as.stop"
	ActionRoleChanged        = "profile.role_changed"
	ActionPermissionsChanged = "profile.permissions_changed"
	ActionProfileDeleted     = "profile.deleted"
	ActionTrackingCodeSet    = "profile.tracking_code_set"
	ActionReferrerBound      = "profile.referrer_bound"
)

type Entry struct {
	ID            string    `db:"id"             json:"id"`
	ActorID       string    `db:"actor_id"       json:"actor_id"`
	ActorRole     string    `db:"actor_role"     json:"actor_role"`
	EffectiveRole string    `db:"effective_role" json:"effective_role"`
	Action        string    `db:"action"         json:"action"`
	TargetID      string    `db:"target_id"      json:"target_id,omitempty"`
	Metadata      Metadata  `db:"metadata"       json:"metadata,omitempty"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}

// Metadata is stored as JSONB.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan audit metadata: unsupported type %T", src)
	}
	return json.Unmarshal(data, m)
}

type ListParams struct {
	Page     int
	PageSize int
	ActorID  string
	TargetID string
	Action   string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
