package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/perf-attribution/pkg/errors"
)

// setupMockDB wires GORM's mysql dialector over a sqlmock connection
// so SQL shape and error propagation can be asserted without a server.
func setupMockDB(t *testing.T) (*GormRepository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormRepository(db), mock
}

func TestCountDetailsQuery(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `perf_symbol_detail`").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(42)))

	count, err := repo.CountDetails(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestRunQuery(t *testing.T) {
	repo, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{
		"id", "scene", "package_name", "rounds", "version", "create_time",
	}).AddRow(int64(3), "cold_start", "com.example.app", 2, "1.0.0", time.Now())

	mock.ExpectQuery("SELECT \\* FROM `attribution_run`").
		WithArgs("cold_start", 1).
		WillReturnRows(rows)

	run, err := repo.LatestRun(context.Background(), "cold_start")
	require.NoError(t, err)
	assert.Equal(t, int64(3), run.ID)
	assert.Equal(t, 2, run.Rounds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountDetailsDatabaseError(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `perf_symbol_detail`").
		WillReturnError(assert.AnError)

	_, err := repo.CountDetails(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetErrorCode(err))
}
