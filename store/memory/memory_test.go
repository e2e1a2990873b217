package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salaryse/assistant/store"
)

func exchange(i int) store.Exchange {
	return store.Exchange{
		Question:  fmt.Sprintf("q%d", i),
		Answer:    fmt.Sprintf("a%d", i),
		Timestamp: time.Now(),
	}
}

func TestSessionStore_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(Options{})

	history, err := s.History(ctx, "t-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, s.Append(ctx, "t-1", exchange(1)))
	require.NoError(t, s.Append(ctx, "t-1", exchange(2)))
	require.NoError(t, s.Append(ctx, "t-2", exchange(9)))

	history, err = s.History(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "q1", history[0].Question)
	assert.Equal(t, "a2", history[1].Answer)

	other, err := s.History(ctx, "t-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSessionStore_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(Options{MaxHistory: 3})

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(ctx, "t", exchange(i)))
	}

	history, err := s.History(ctx, "t")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"q3", "q4", "q5"}, []string{history[0].Question, history[1].Question, history[2].Question})
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(Options{TTL: 20 * time.Millisecond})

	require.NoError(t, s.Append(ctx, "t", exchange(1)))
	time.Sleep(40 * time.Millisecond)

	history, err := s.History(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSessionStore_HistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(Options{})
	require.NoError(t, s.Append(ctx, "t", exchange(1)))

	history, _ := s.History(ctx, "t")
	history[0].Answer = "mutated"

	again, _ := s.History(ctx, "t")
	assert.Equal(t, "a1", again[0].Answer)
}

func TestSessionStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(Options{MaxHistory: 100})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(ctx, "t", exchange(i))
		}(i)
	}
	wg.Wait()

	history, err := s.History(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, history, 50)

	require.NoError(t, s.Delete(ctx, "t"))
	history, _ = s.History(ctx, "t")
	assert.Empty(t, history)
}
