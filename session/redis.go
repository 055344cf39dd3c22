package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/stockgraph/log"
)

// RedisStore keeps conversation contexts as JSON values with a TTL, so
// eviction is handled by Redis itself and Sweep is a no-op. Useful when
// several service instances share sessions.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing Redis client. An empty prefix defaults
// to "stockgraph:session:"; a zero ttl defaults to the package TTL.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "stockgraph:session:"
	}
	if ttl <= 0 {
		ttl = TTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Get loads and unmarshals the context for a conversation id.
func (s *RedisStore) Get(ctx context.Context, id string) (Context, bool) {
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn("session: redis get failed for %s: %v", id, err)
		}
		return Context{}, false
	}
	var c Context
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		log.Warn("session: corrupt context for %s: %v", id, err)
		return Context{}, false
	}
	return c, true
}

// Put stores the context with the configured TTL. Storage failures are
// logged, not surfaced; the session cache is best effort.
func (s *RedisStore) Put(ctx context.Context, id string, c Context) {
	data, err := json.Marshal(c)
	if err != nil {
		log.Warn("session: marshal context for %s: %v", id, err)
		return
	}
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		log.Warn("session: redis set failed for %s: %v", id, err)
	}
}

// Sweep is a no-op; Redis expires keys via the per-key TTL.
func (s *RedisStore) Sweep(context.Context, time.Time) int {
	return 0
}
