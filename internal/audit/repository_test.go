// AngelaMos | 2026
// repository_test.go

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(NewRepository(sqlx.NewDb(db, "sqlmock"))), mock
}

func TestRecordDefaultsEffectiveRole(t *testing.T) {
	svc, mock := newTestService(t)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO audit_log").
		WithArgs(
			sqlmock.AnyArg(),
			"admin_1",
			"admin",
			"admin",
			ActionRoleChanged,
			"p2",
			sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	err := svc.Record(context.Background(),
		Actor{ID: "admin_1", Role: "admin"},
		ActionRoleChanged, "p2",
		Metadata{"from": "lead", "to": "client"},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordKeepsViewingRole(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("INSERT INTO audit_log").
		WithArgs(
			sqlmock.AnyArg(),
			"admin_1",
			"admin",
			"tax_preparer",
			ActionViewAsStart,
			"",
			sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	err := svc.Record(context.Background(),
		Actor{ID: "admin_1", Role: "admin", EffectiveRole: "tax_preparer"},
		ActionViewAsStart, "", nil,
	)
	require.NoError(t, err)
}

func TestLogSwallowsErrors(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery("INSERT INTO audit_log").WillReturnError(errors.New("connection reset"))

	assert.NotPanics(t, func() {
		svc.Log(context.Background(), Actor{ID: "a", Role: "admin"}, ActionProfileDeleted, "p9", nil)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFilters(t *testing.T) {
	svc, mock := newTestService(t)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("admin_1", ActionViewAsStart).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("admin_1", ActionViewAsStart, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "actor_id", "actor_role", "effective_role", "action",
			"target_id", "metadata", "created_at",
		}).AddRow(
			"e1", "admin_1", "admin", "admin", ActionViewAsStart,
			"", []byte(`{"viewing_role":"client"}`), created,
		))

	entries, total, err := svc.List(context.Background(), ListParams{
		ActorID: "admin_1",
		Action:  ActionViewAsStart,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "client", entries[0].Metadata["viewing_role"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetadataValue(t *testing.T) {
	v, err := Metadata(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	var m Metadata
	require.NoError(t, m.Scan(`{"a":1}`))
	assert.Equal(t, float64(1), m["a"])
	assert.Error(t, m.Scan(42))
}
