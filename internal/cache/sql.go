package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLCache keeps responses in the response_cache table created by db.Open.
type SQLCache struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLCache(db *sql.DB) *SQLCache { return &SQLCache{db: db, now: time.Now} }

func (c *SQLCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT body FROM response_cache WHERE cache_key=$1 AND expires_at > $2`,
		key, c.now().Unix()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *SQLCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	now := c.now()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO response_cache (cache_key, body, expires_at, created_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (cache_key)
		 DO UPDATE SET body=excluded.body, expires_at=excluded.expires_at, created_at=excluded.created_at`,
		key, val, now.Add(ttl).Unix(), now.Unix())
	return err
}

// Purge deletes expired entries and returns how many were removed.
func (c *SQLCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= $1`, c.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *SQLCache) Close() error { return c.db.Close() }
