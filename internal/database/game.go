// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/eights/internal/cache"
)

// SeatScore is one seat's final standing.
type SeatScore struct {
	Seat  int
	Name  string
	Human bool
	Score int
}

// GameResult is the final outcome of a table.
type GameResult struct {
	GameID     uuid.UUID
	Rounds     int
	WinnerSeat int
	Seats      []SeatScore
	FinishedAt time.Time
}

// RecordGameResult marks the game completed and upserts every seat's final score.
func (s *Store) RecordGameResult(ctx context.Context, res GameResult) error {
	if res.FinishedAt.IsZero() {
		res.FinishedAt = time.Now()
	}
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, rounds, winner_seat, end_time)
			VALUES ($1, 'completed', $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET status = 'completed', rounds = $2, winner_seat = $3, end_time = $4
		`
		if _, e := tx.Exec(ctx, upsertGame, res.GameID, res.Rounds, res.WinnerSeat, res.FinishedAt); e != nil {
			return e
		}
		for _, seat := range res.Seats {
			q := `
				INSERT INTO game_results (game_id, seat, name, human, score, did_win)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (game_id, seat)
				DO UPDATE SET name = $3, human = $4, score = $5, did_win = $6
			`
			if _, e := tx.Exec(ctx, q, res.GameID, seat.Seat, seat.Name, seat.Human, seat.Score, seat.Seat == res.WinnerSeat); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}

// InsertActions writes a batch of action records in one transaction, creating game rows as needed.
// A game_end action completes its game.
func (s *Store) InsertActions(ctx context.Context, records []cache.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %d of game %s: %w", rec.ActionIndex, rec.GameID, err)
			}
		}
		return nil
	})
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (game_id, action_index, actor_seat, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, rec.ActorSeat, rec.ActionType, payload, time.UnixMilli(rec.Timestamp),
	); err != nil {
		return err
	}

	if rec.ActionType == "game_end" {
		finalizeQ := `
			UPDATE games
			SET status = 'completed', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.GameID); err != nil {
			return err
		}
	}
	return nil
}

// MarkAbandoned flags a game that stopped producing actions before it finished.
func (s *Store) MarkAbandoned(ctx context.Context, gameID uuid.UUID) error {
	q := `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := s.Pool.Exec(ctx, q, gameID); err != nil {
		return fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return nil
}
