package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

func TestPostgresCache_Put(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cache := NewPostgresCacheWithPool(mock, "designs")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO designs")).
		WithArgs("k", `{"nodes":[]}`, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = cache.Put(context.Background(), "k", `{"nodes":[]}`)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cache := NewPostgresCacheWithPool(mock, "designs")

	rows := pgxmock.NewRows([]string{"value"}).AddRow(`{"nodes":[]}`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM designs WHERE key = $1")).
		WithArgs("k").
		WillReturnRows(rows)

	v, ok, err := cache.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"nodes":[]}`, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_GetMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cache := NewPostgresCacheWithPool(mock, "designs")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM designs WHERE key = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := cache.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cache := NewPostgresCacheWithPool(mock, "designs")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM designs WHERE key = $1")).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = cache.Delete(context.Background(), "k")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCache_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	cache := NewPostgresCacheWithPool(mock, "designs")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS designs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err = cache.InitSchema(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
