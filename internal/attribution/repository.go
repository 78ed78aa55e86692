// AngelaMos | 2026
// repository.go

package attribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type Repository interface {
	ProfileFinder
	InsertClick(ctx context.Context, click *Click) error
	ClickSummary(ctx context.Context, since time.Time, limit int) ([]CodeClicks, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const findByAnyCodeQuery = `
	SELECT id, role,
	       CASE
	           WHEN lower(tracking_code) = lower($1) THEN tracking_code
	           WHEN lower(custom_tracking_code) = lower($1) THEN custom_tracking_code
	           ELSE short_link_username
	       END AS code,
	       CASE
	           WHEN lower(tracking_code) = lower($1) THEN 'tracking_code'
	           WHEN lower(custom_tracking_code) = lower($1) THEN 'custom_tracking_code'
	           ELSE 'short_link_username'
	       END AS namespace
	FROM profiles
	WHERE deleted_at IS NULL
	  AND (lower(tracking_code) = lower($1)
	       OR lower(custom_tracking_code) = lower($1)
	       OR lower(short_link_username) = lower($1))
	ORDER BY created_at ASC
	LIMIT 1`

func (r *repository) FindByAnyTrackingCode(
	ctx context.Context,
	code string,
) (*Match, error) {
	var row struct {
		ID        string `db:"id"`
		Role      string `db:"role"`
		Code      string `db:"code"`
		Namespace string `db:"namespace"`
	}

	err := r.db.GetContext(ctx, &row, findByAnyCodeQuery, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find by tracking code: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find by tracking code: %w", err)
	}

	role, err := rbac.ParseRole(row.Role)
	if err != nil {
		return nil, fmt.Errorf("find by tracking code: profile %s: %w", row.ID, err)
	}

	return &Match{
		ProfileID: row.ID,
		Code:      row.Code,
		Namespace: Namespace(row.Namespace),
		Role:      role,
	}, nil
}

func (r *repository) InsertClick(ctx context.Context, click *Click) error {
	query := `
		INSERT INTO referral_clicks (
			id, profile_id, code, namespace, landing_path, user_agent, referer
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &click.CreatedAt, query,
		click.ID,
		click.ProfileID,
		click.Code,
		click.Namespace,
		click.LandingPath,
		click.UserAgent,
		click.Referer,
	)
	if err != nil {
		return fmt.Errorf("insert referral click: %w", err)
	}

	return nil
}

// ClickSummary ranks codes by clicks recorded since the given time.
func (r *repository) ClickSummary(
	ctx context.Context,
	since time.Time,
	limit int,
) ([]CodeClicks, error) {
	query := `
		SELECT profile_id, code, namespace,
		       COUNT(*) AS clicks, MAX(created_at) AS last_click_at
		FROM referral_clicks
		WHERE created_at >= $1
		GROUP BY profile_id, code, namespace
		ORDER BY clicks DESC, last_click_at DESC
		LIMIT $2`

	var rows []CodeClicks
	if err := r.db.SelectContext(ctx, &rows, query, since, limit); err != nil {
		return nil, fmt.Errorf("summarize referral clicks: %w", err)
	}

	return rows, nil
}
