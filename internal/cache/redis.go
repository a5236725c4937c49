// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup; a
// nil client disables the journal entirely.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for session lifecycle records.
var DefaultQueueName = "durak_session_events"

// Session event types pushed to the journal.
const (
	EventUserRegistered = "user_registered"
	EventRoomCreated    = "room_created"
	EventRoomJoined     = "room_joined"
	EventRoomLeft       = "room_left"
	EventRoomTidied     = "room_tidied"
	EventOwnerMigrated  = "owner_migrated"
	EventDisconnected   = "disconnected"
)

// SessionEventRecord holds the minimal info an external historian needs to
// reconstruct the session timeline.
type SessionEventRecord struct {
	EventType string    `json:"event_type"`
	ConnID    uuid.UUID `json:"conn_id"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	RoomID    uuid.UUID `json:"room_id,omitempty"`
	PlayerID  uuid.UUID `json:"player_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishSessionEvent serializes the record and pushes it onto the journal
// queue. Best-effort: with no Redis client connected it is a no-op, so the
// tick loop never depends on the journal being up.
func PublishSessionEvent(ctx context.Context, record SessionEventRecord) error {
	if Rdb == nil {
		return nil
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal SessionEventRecord: %w", err)
	}

	queueName := getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
