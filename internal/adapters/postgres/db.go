package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/surveyplan/internal/pkg/config"
)

// DB wraps the pgx pool shared by the plan repository.
type DB struct {
	Pool *pgxpool.Pool
}

// New opens a pool sized by database.max_conns and checks it with a ping.
// app is reported to the server as application_name.
func New(ctx context.Context, dc config.DatabaseConfig, app string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dc.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = dc.MaxConns
	if app != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = app
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s:%d: %w", dc.Host, dc.Port, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s:%d: %w", dc.Host, dc.Port, err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

// Stat exposes pool statistics for metrics.
func (db *DB) Stat() *pgxpool.Stat { return db.Pool.Stat() }

func (db *DB) Close() { db.Pool.Close() }
