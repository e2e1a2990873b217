package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salaryse/assistant/store"
)

func TestRedisSessionStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewSessionStore(RedisOptions{Addr: mr.Addr(), MaxHistory: 2})
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	history, err := s.History(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	for i := 1; i <= 3; i++ {
		err := s.Append(ctx, "t-1", store.Exchange{
			Question:      fmt.Sprintf("q%d", i),
			Answer:        fmt.Sprintf("a%d", i),
			LowConfidence: i == 3,
			Timestamp:     time.Date(2026, 1, i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	history, err = s.History(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "q2", history[0].Question)
	assert.Equal(t, "q3", history[1].Question)
	assert.True(t, history[1].LowConfidence)
	assert.True(t, history[1].Timestamp.Equal(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))

	assert.True(t, mr.Exists("salaryse:session:t-1:history"))

	require.NoError(t, s.Delete(ctx, "t-1"))
	history, err = s.History(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedisSessionStore_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewSessionStore(RedisOptions{Addr: mr.Addr(), TTL: time.Minute, Prefix: "test:"})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "t", store.Exchange{Question: "q", Answer: "a"}))
	assert.Equal(t, time.Minute, mr.TTL("test:session:t:history"))

	mr.FastForward(2 * time.Minute)
	history, err := s.History(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedisSessionStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	s := NewSessionStore(RedisOptions{Addr: addr})
	_, err = s.History(context.Background(), "t")
	assert.Error(t, err)
}
