package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/moonlysoftware/dashboard-intro-week/pkg/config"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/retry"
)

// Client holds the screen store's PostgreSQL pool
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and waits for the database to accept connections.
// Cancelling ctx stops the wait, so a container can still be stopped while
// Postgres is coming up.
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Screen writes are rare and kiosk polls read only a few rows, so a
	// small pool is enough
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	backoff := retry.DefaultConfig()
	backoff.MaxAttempts = cfg.ConnectAttempts
	backoff.OnRetry = func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).
			Str("storage", "postgres").
			Str("host", cfg.Host).
			Int("attempt", attempt).
			Dur("next_delay", nextDelay).
			Msg("screen store not reachable yet")
	}
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("screen store at %s:%d unavailable: %w", cfg.Host, cfg.Port, err)
	}

	log.Info().
		Str("storage", "postgres").
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("screen store connected")
	return &Client{db: db}, nil
}

// DB returns the pool used by the goqu adapters
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the pool
func (c *Client) Close() error {
	return c.db.Close()
}
