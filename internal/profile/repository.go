// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetForUpdate(ctx context.Context, id string) (*Profile, error)
	TrackingCodeTaken(ctx context.Context, code, exceptID string) (bool, error)
	List(ctx context.Context, params ListParams) ([]Profile, int, error)
	UpdateRole(ctx context.Context, id string, role rbac.Role) error
	UpdatePermissions(ctx context.Context, id string, overrides PermissionOverrides) error
	UpdateCustomTrackingCode(ctx context.Context, id, code string) error
	BindReferrer(ctx context.Context, id, username, referrerType string) (bool, error)
	SoftDelete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const profileColumns = `
	id, email, first_name, last_name, role, permission_overrides,
	tracking_code, custom_tracking_code, short_link_username,
	referred_by_username, referred_by_type,
	created_at, updated_at, deleted_at`

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE id = $1 AND deleted_at IS NULL`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

// GetForUpdate locks the row for the rest of the transaction.
func (r *repository) GetForUpdate(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM profiles
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}

	return &p, nil
}

// TrackingCodeTaken checks the union of all three namespaces, including
// deleted profiles, so a released code never changes owner.
func (r *repository) TrackingCodeTaken(
	ctx context.Context,
	code, exceptID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM profiles
			WHERE id <> $2
			  AND (lower(tracking_code) = lower($1)
			       OR lower(custom_tracking_code) = lower($1)
			       OR lower(short_link_username) = lower($1))
		)`

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, code, exceptID); err != nil {
		return false, fmt.Errorf("check tracking code: %w", err)
	}

	return taken, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Profile, int, error) {
	params.Normalize()

	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM profiles WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM profiles
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		profileColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var profiles []Profile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	return profiles, total, nil
}

func (r *repository) UpdateRole(ctx context.Context, id string, role rbac.Role) error {
	query := `
		UPDATE profiles
		SET role = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execOne(ctx, "update role", query, id, role.String())
}

func (r *repository) UpdatePermissions(
	ctx context.Context,
	id string,
	overrides PermissionOverrides,
) error {
	query := `
		UPDATE profiles
		SET permission_overrides = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execOne(ctx, "update permissions", query, id, overrides)
}

func (r *repository) UpdateCustomTrackingCode(
	ctx context.Context,
	id, code string,
) error {
	query := `
		UPDATE profiles
		SET custom_tracking_code = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	err := r.execOne(ctx, "update tracking code", query, id, code)
	if isDuplicateKeyError(err) {
		return fmt.Errorf("update tracking code: %w", core.ErrDuplicateKey)
	}
	return err
}

// BindReferrer records who referred the profile. It reports false when a
// referrer was already bound, which is left untouched.
func (r *repository) BindReferrer(
	ctx context.Context,
	id, username, referrerType string,
) (bool, error) {
	query := `
		UPDATE profiles
		SET referred_by_username = $2, referred_by_type = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND referred_by_username IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, username, referrerType)
	if err != nil {
		return false, fmt.Errorf("bind referrer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bind referrer: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE profiles
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execOne(ctx, "delete profile", query, id)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
