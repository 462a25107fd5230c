package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/eights/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectTestStore needs a scratch Postgres; set DATABASE_TEST_URL to run these tests.
func connectTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	s, err := Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func gameStatus(t *testing.T, s *Store, id uuid.UUID) string {
	t.Helper()
	var status string
	err := s.Pool.QueryRow(context.Background(), `SELECT status FROM games WHERE id = $1`, id).Scan(&status)
	require.NoError(t, err)
	return status
}

func TestInsertActionsCompletesOnGameEnd(t *testing.T) {
	s := connectTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UnixMilli()

	require.NoError(t, s.InsertActions(ctx, []cache.GameActionRecord{
		{GameID: id, ActionIndex: 1, ActorSeat: -1, ActionType: "game_start", Timestamp: now},
		{GameID: id, ActionIndex: 2, ActorSeat: 0, ActionType: "play", ActionPayload: map[string]interface{}{"card": "8H"}, Timestamp: now},
	}))
	assert.Equal(t, "in_progress", gameStatus(t, s, id))

	// replayed records are ignored
	require.NoError(t, s.InsertActions(ctx, []cache.GameActionRecord{
		{GameID: id, ActionIndex: 2, ActorSeat: 0, ActionType: "play", Timestamp: now},
		{GameID: id, ActionIndex: 3, ActorSeat: -1, ActionType: "game_end", Timestamp: now},
	}))
	assert.Equal(t, "completed", gameStatus(t, s, id))

	var n int
	require.NoError(t, s.Pool.QueryRow(ctx, `SELECT count(*) FROM game_actions WHERE game_id = $1`, id).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestMarkAbandonedOnlyTouchesRunningGames(t *testing.T) {
	s := connectTestStore(t)
	ctx := context.Background()
	running, done := uuid.New(), uuid.New()
	now := time.Now().UnixMilli()

	require.NoError(t, s.InsertActions(ctx, []cache.GameActionRecord{
		{GameID: running, ActionIndex: 1, ActorSeat: -1, ActionType: "game_start", Timestamp: now},
		{GameID: done, ActionIndex: 1, ActorSeat: -1, ActionType: "game_end", Timestamp: now},
	}))
	require.NoError(t, s.MarkAbandoned(ctx, running))
	require.NoError(t, s.MarkAbandoned(ctx, done))
	assert.Equal(t, "abandoned", gameStatus(t, s, running))
	assert.Equal(t, "completed", gameStatus(t, s, done))
}

func TestRecordGameResult(t *testing.T) {
	s := connectTestStore(t)
	ctx := context.Background()
	res := GameResult{
		GameID:     uuid.New(),
		Rounds:     4,
		WinnerSeat: 1,
		Seats: []SeatScore{
			{Seat: 0, Name: "Ann", Human: true, Score: 52},
			{Seat: 1, Name: "CPU 1", Score: 12},
		},
	}
	require.NoError(t, s.RecordGameResult(ctx, res))
	require.NoError(t, s.RecordGameResult(ctx, res))
	assert.Equal(t, "completed", gameStatus(t, s, res.GameID))

	var winners int
	require.NoError(t, s.Pool.QueryRow(ctx,
		`SELECT count(*) FROM game_results WHERE game_id = $1 AND did_win`, res.GameID).Scan(&winners))
	assert.Equal(t, 1, winners)
}
