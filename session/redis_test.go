package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "", 0), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	_, ok := s.Get(ctx, "conv-1")
	assert.False(t, ok)

	in := Context{
		LastSymbol:    "AAPL",
		LastQuestion:  "What is the latest price of AAPL?",
		LastAnswer:    "The latest price was $150.00.",
		Timestamp:     time.Now().UTC().Truncate(time.Second),
		RecentSymbols: []string{"AAPL"},
	}
	s.Put(ctx, "conv-1", in)

	out, ok := s.Get(ctx, "conv-1")
	require.True(t, ok)
	assert.Equal(t, in.LastSymbol, out.LastSymbol)
	assert.Equal(t, in.LastAnswer, out.LastAnswer)
	assert.Equal(t, in.RecentSymbols, out.RecentSymbols)
}

func TestRedisStoreTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	s.Put(ctx, "conv-1", Context{LastSymbol: "AAPL", Timestamp: time.Now()})
	require.True(t, mr.Exists("stockgraph:session:conv-1"))

	mr.FastForward(TTL + time.Minute)
	_, ok := s.Get(ctx, "conv-1")
	assert.False(t, ok, "redis TTL expires the context")
}

func TestRedisStoreCorruptValue(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, mr.Set("stockgraph:session:bad", "not json"))

	_, ok := s.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestRedisStoreSweepIsNoop(t *testing.T) {
	s, _ := newRedisStore(t)
	assert.Zero(t, s.Sweep(context.Background(), time.Now()))
}
