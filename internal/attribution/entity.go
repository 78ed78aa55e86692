// AngelaMos | 2026
// entity.go

package attribution

import (
	"context"
	"strings"
	"time"

	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

const (
	RefCookie      = "ref"
	RefClickCookie = "ref_click"
)

type Namespace string

const (
	NamespaceTrackingCode  Namespace = "tracking_code"
	NamespaceCustomCode    Namespace = "custom_tracking_code"
	NamespaceShortLinkUser Namespace = "short_link_username"
)

type Source string

const (
	SourceQuery  Source = "query"
	SourceCookie Source = "cookie"
	SourceNone   Source = "none"
)

// Match is a profile found by one of its tracking codes. Code is the value
// as stored, which may differ in case from what the visitor typed.
type Match struct {
	ProfileID string    `db:"id"        json:"profile_id"`
	Code      string    `db:"code"      json:"code"`
	Namespace Namespace `db:"namespace" json:"namespace"`
	Role      rbac.Role `db:"role"      json:"role"`
}

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=finder_mock_test.go -package=attribution github.com/carterperez-dev/taxdesk/internal/attribution ProfileFinder

// ProfileFinder looks a code up across all three namespaces. It returns an
// error wrapping core.ErrNotFound when no profile owns the code.
type ProfileFinder interface {
	FindByAnyTrackingCode(ctx context.Context, code string) (*Match, error)
}

type Attribution struct {
	ReferrerUsername string    `json:"referrer_username"`
	ReferrerType     string    `json:"referrer_type"`
	ProfileID        string    `json:"profile_id"`
	Namespace        Namespace `json:"namespace"`
}

func fromMatch(m *Match) *Attribution {
	return &Attribution{
		ReferrerUsername: m.Code,
		ReferrerType:     ReferrerType(m.Role),
		ProfileID:        m.ProfileID,
		Namespace:        m.Namespace,
	}
}

// ReferrerType is the upper-case role label used by commission and lead
// records, e.g. TAX_PREPARER.
func ReferrerType(r rbac.Role) string {
	return strings.ToUpper(r.String())
}

// Click is one landing on a tracking link.
type Click struct {
	ID          string    `db:"id"           json:"id"`
	ProfileID   string    `db:"profile_id"   json:"profile_id"`
	Code        string    `db:"code"         json:"code"`
	Namespace   Namespace `db:"namespace"    json:"namespace"`
	LandingPath string    `db:"landing_path" json:"landing_path"`
	UserAgent   string    `db:"user_agent"   json:"user_agent,omitempty"`
	Referer     string    `db:"referer"      json:"referer,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// CodeClicks is one row of the click summary.
type CodeClicks struct {
	ProfileID   string    `db:"profile_id"    json:"profile_id"`
	Code        string    `db:"code"          json:"code"`
	Namespace   Namespace `db:"namespace"     json:"namespace"`
	Clicks      int64     `db:"clicks"        json:"clicks"`
	LastClickAt time.Time `db:"last_click_at" json:"last_click_at"`
}
