package adapters

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

//go:embed migrations/*.sql
var migrations embed.FS

// LibSQLResponseCache persists responses in a libsql database so cached
// replies survive restarts. Schema is managed with goose migrations.
type LibSQLResponseCache struct {
	db       *sql.DB
	capacity int
	logger   zerolog.Logger
}

func NewLibSQLResponseCache(dsn string, capacity int, logger zerolog.Logger) (*LibSQLResponseCache, error) {
	if capacity <= 0 {
		capacity = 50
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &LibSQLResponseCache{db: db, capacity: capacity, logger: logger}, nil
}

func (c *LibSQLResponseCache) Get(ctx context.Context, key string) (string, bool) {
	var response string
	err := c.db.QueryRowContext(ctx,
		`SELECT response FROM response_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	).Scan(&response)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn().Err(err).Msg("cache read failed")
		}
		return "", false
	}
	return response, true
}

func (c *LibSQLResponseCache) Set(ctx context.Context, key, value string, ttlSeconds int) error {
	now := time.Now().Unix()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO response_cache (key, response, created_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET response = excluded.response,
		     created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, value, now, now+int64(ttlSeconds),
	)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}

	// Trim expired rows, then the oldest rows beyond capacity.
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE expires_at <= ?`, now); err != nil {
		c.logger.Warn().Err(err).Msg("cache expiry sweep failed")
	}
	_, err = c.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE key IN (
		     SELECT key FROM response_cache ORDER BY created_at DESC LIMIT -1 OFFSET ?
		 )`, c.capacity)
	if err != nil {
		return fmt.Errorf("cache trim: %w", err)
	}
	return nil
}

func (c *LibSQLResponseCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM response_cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *LibSQLResponseCache) Close() error {
	return c.db.Close()
}

var _ ports.ResponseCache = (*LibSQLResponseCache)(nil)
