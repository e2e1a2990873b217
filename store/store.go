package store

import (
	"context"
	"time"
)

// DefaultMaxHistory is the number of exchanges kept per thread.
const DefaultMaxHistory = 20

// Exchange is one question and the answer given to it.
type Exchange struct {
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	LowConfidence bool      `json:"low_confidence,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// SessionStore persists conversation history per thread id.
type SessionStore interface {
	// History returns the thread's exchanges, oldest first. Unknown threads
	// have an empty history.
	History(ctx context.Context, threadID string) ([]Exchange, error)

	// Append adds an exchange, evicting the oldest beyond the store's cap.
	Append(ctx context.Context, threadID string, exchange Exchange) error

	// Delete forgets a thread.
	Delete(ctx context.Context, threadID string) error
}

// Trim returns the last max exchanges of history. A non-positive max keeps everything.
func Trim(history []Exchange, max int) []Exchange {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}
