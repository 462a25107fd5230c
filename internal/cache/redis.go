// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for table action logs.
const DefaultQueueName = "eights_actions"

// GameActionRecord holds the minimal info needed by the historian service.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorSeat     int                    `json:"actor_seat"` // -1 for table-level actions
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Publisher pushes action records onto a Redis list.
type Publisher struct {
	Rdb   *redis.Client
	Queue string
}

// Connect creates a Redis client for addr and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{Rdb: rdb, Queue: queue}
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
func (p *Publisher) PublishGameAction(ctx context.Context, record GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := p.Rdb.RPush(ctx, p.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.Queue, err)
	}
	return nil
}

// PopGameAction blocks up to timeout for the next record. It returns (nil, nil) when the queue stayed empty.
func (p *Publisher) PopGameAction(ctx context.Context, timeout time.Duration) (*GameActionRecord, error) {
	res, err := p.Rdb.BLPop(ctx, timeout, p.Queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", p.Queue, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil, nil
	}
	var record GameActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &record, nil
}
