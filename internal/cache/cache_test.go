package cache

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-grades/internal/db"
)

func openSQLite(t *testing.T) *SQLCache {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "cache.db") + "?_pragma=busy_timeout(5000)"
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	c := NewSQLCache(h)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte(`[{"id":1}]`), time.Minute))
	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":1}]`, string(b))

	require.NoError(t, c.Set(ctx, "k", []byte(`[]`), time.Minute))
	b, _, _ = c.Get(ctx, "k")
	assert.Equal(t, "[]", string(b))

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLCache_SetStatement(t *testing.T) {
	h, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer h.Close()

	c := NewSQLCache(h)
	now := time.Unix(1_000, 0)
	c.now = func() time.Time { return now }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO response_cache (cache_key, body, expires_at, created_at)")).
		WithArgs("canvas:abc", []byte("x"), int64(1_060), int64(1_000)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, c.Set(context.Background(), "canvas:abc", []byte("x"), time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLCache_GetMissOnNoRows(t *testing.T) {
	h, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer h.Close()

	c := NewSQLCache(h)
	c.now = func() time.Time { return time.Unix(5, 0) }

	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM response_cache WHERE cache_key=$1 AND expires_at > $2")).
		WithArgs("missing", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	_, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_Drivers(t *testing.T) {
	s, err := Open(context.Background(), "", "")
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(context.Background(), "memcached", "")
	assert.Error(t, err)

	s, err = Open(context.Background(), "sqlite", "file:"+filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	key := "gradecalc:test:" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute))
	b, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(b))

	_, ok, err = c.Get(ctx, key+":absent")
	require.NoError(t, err)
	assert.False(t, ok)
}
