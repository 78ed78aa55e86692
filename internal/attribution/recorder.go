// AngelaMos | 2026
// recorder.go

package attribution

import (
	"context"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/carterperez-dev/taxdesk/internal/core"
)

type ClickStore interface {
	InsertClick(ctx context.Context, click *Click) error
}

// ClickRecorder logs fresh clicks for analytics. Failures never affect the
// visitor.
type ClickRecorder struct {
	store   ClickStore
	enabled bool
}

func NewClickRecorder(store ClickStore, enabled bool) *ClickRecorder {
	return &ClickRecorder{store: store, enabled: enabled}
}

func (c *ClickRecorder) Record(ctx context.Context, res Result, r *http.Request) {
	if c == nil || !c.enabled || res.Source != SourceQuery || !res.Resolved() {
		return
	}

	click := &Click{
		ID:          res.ClickID,
		ProfileID:   res.Attribution.ProfileID,
		Code:        res.Attribution.ReferrerUsername,
		Namespace:   res.Attribution.Namespace,
		LandingPath: r.URL.Path,
		UserAgent:   truncate(r.UserAgent(), 512),
		Referer:     truncate(r.Referer(), 2048),
	}
	if click.ID == "" {
		click.ID = core.NewULID()
	}

	if err := c.store.InsertClick(ctx, click); err != nil {
		slog.WarnContext(ctx, "referral click not recorded",
			"click_id", click.ID,
			"profile_id", click.ProfileID,
			"error", err,
		)
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
