// AngelaMos | 2026
// repository_test.go

package profile

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/taxdesk/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM profiles").WithArgs("p1").WillReturnRows(profileRows("p1", "affiliate"))
	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1@example.com", p.Email)
	assert.Equal(t, "affiliate", p.Role)
	assert.False(t, p.HasReferrer())

	mock.ExpectQuery("FROM profiles").WithArgs("gone").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(ctx, "gone")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(`%50\%%`, "client").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(`%50\%%`, "client", 20, 0).
		WillReturnRows(profileRows("p1", "client"))

	profiles, total, err := repo.List(context.Background(), ListParams{
		Search: "50%",
		Role:   "client",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, profiles, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateCustomTrackingCodeDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE profiles").
		WithArgs("p1", "SARAH2024").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := repo.UpdateCustomTrackingCode(context.Background(), "p1", "SARAH2024")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepositoryUpdateRoleMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE profiles").
		WithArgs("p1", "client").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRole(context.Background(), "p1", "client")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryBindReferrer(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectExec("referred_by_username IS NULL").
		WithArgs("p1", "SARAH2024", "TAX_PREPARER").
		WillReturnResult(sqlmock.NewResult(0, 1))
	bound, err := repo.BindReferrer(ctx, "p1", "SARAH2024", "TAX_PREPARER")
	require.NoError(t, err)
	assert.True(t, bound)

	mock.ExpectExec("referred_by_username IS NULL").
		WithArgs("p1", "MIKE", "AFFILIATE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	bound, err = repo.BindReferrer(ctx, "p1", "MIKE", "AFFILIATE")
	require.NoError(t, err)
	assert.False(t, bound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\`, escapeLike(`a_b%c\`))
}
