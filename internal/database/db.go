package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the results archive: finished games, their seats' scores, and the action log.
type Store struct {
	Pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	rounds      INT NOT NULL DEFAULT 0,
	winner_seat INT,
	start_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_results (
	game_id  UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	seat     INT NOT NULL,
	name     TEXT NOT NULL,
	human    BOOLEAN NOT NULL,
	score    INT NOT NULL,
	did_win  BOOLEAN NOT NULL,
	PRIMARY KEY (game_id, seat)
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id        UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	action_index   INT NOT NULL,
	actor_seat     INT NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);
`

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &Store{Pool: pool}, nil
}

// EnsureSchema creates the archive tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.Pool.Close()
}
