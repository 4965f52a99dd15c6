package agentstate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisShadow mirrors each agent's novel_pending fingerprint set into
// Redis on a best-effort basis. It is advisory, non-authoritative
// mirroring — the in-process registry always answers the request path —
// intended to warm a second gateway instance's view in a future
// horizontally-scaled deployment.
type RedisShadow struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewRedisShadow connects to Redis and returns a shadow mirror. Mirror
// failures are logged, never surfaced to callers — it must never affect
// the admit/reject decision.
func NewRedisShadow(addr, password string, db int) (*RedisShadow, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("agentstate: redis shadow ping failed (%s): %w", addr, err)
	}

	return &RedisShadow{
		rdb:       rdb,
		keyPrefix: "gateway:novel_pending:",
		ttl:       24 * time.Hour,
		logger:    slog.Default().With("component", "agentstate.RedisShadow"),
	}, nil
}

// Mirror writes the agent's current pending-fingerprint set to Redis.
// Call after a mutation commits, outside the agent lock.
func (r *RedisShadow) Mirror(ctx context.Context, s AgentState) {
	data, err := json.Marshal(s.NovelPending)
	if err != nil {
		r.logger.Warn("failed to marshal novel_pending for mirroring", "agent_id", s.AgentID, "error", err)
		return
	}
	if err := r.rdb.Set(ctx, r.keyPrefix+s.AgentID, data, r.ttl).Err(); err != nil {
		r.logger.Warn("failed to mirror novel_pending to redis", "agent_id", s.AgentID, "error", err)
	}
}

// Close releases the underlying Redis connection.
func (r *RedisShadow) Close() error {
	return r.rdb.Close()
}
