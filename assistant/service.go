package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/salaryse/assistant/log"
	"github.com/salaryse/assistant/prebuilt"
	"github.com/salaryse/assistant/rag"
	"github.com/salaryse/assistant/store"
	"github.com/salaryse/assistant/upstream"
)

// Request is one inbound question.
type Request struct {
	ThreadID string `json:"thread_id" validate:"required,max=128"`
	Question string `json:"question" validate:"required,max=4000"`
}

// Response is the answer to a Request.
type Response struct {
	ThreadID      string              `json:"thread_id"`
	Answer        string              `json:"answer"`
	LowConfidence bool                `json:"low_confidence,omitempty"`
	Datasource    prebuilt.Datasource `json:"datasource"`
	Path          []string            `json:"path"`
	Documents     []rag.Document      `json:"documents,omitempty"`
}

// Agent answers a question given prior exchanges.
type Agent interface {
	Run(ctx context.Context, question string, history []store.Exchange) (*prebuilt.Result, error)
}

// Service answers questions per conversation thread.
type Service struct {
	agent        Agent
	sessions     store.SessionStore
	validate     *validator.Validate
	locks        *threadLocks
	storeTimeout time.Duration
	logger       log.Logger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStoreTimeout bounds each session store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

// NewService creates a service over agent and sessions.
func NewService(agent Agent, sessions store.SessionStore, opts ...Option) *Service {
	s := &Service{
		agent:    agent,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		locks:    newThreadLocks(),
		logger:   log.GetDefaultLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers req.Question within thread req.ThreadID. Requests on the same
// thread run one at a time; distinct threads run concurrently. The exchange
// is recorded only when an answer was produced.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	release, err := s.locks.acquire(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	defer release()

	history, err := upstream.Call(ctx, "session store", s.storeTimeout, func(ctx context.Context) ([]store.Exchange, error) {
		return s.sessions.History(ctx, req.ThreadID)
	})
	if err != nil {
		return nil, fmt.Errorf("load history for thread %s: %w", req.ThreadID, err)
	}

	result, err := s.agent.Run(ctx, req.Question, history)
	if err != nil {
		s.logger.Error("thread %s: %v", req.ThreadID, err)
		return nil, err
	}

	exchange := store.Exchange{
		Question:      req.Question,
		Answer:        result.Answer,
		LowConfidence: result.LowConfidence,
		Timestamp:     s.now(),
	}
	err = upstream.Do(ctx, "session store", s.storeTimeout, func(ctx context.Context) error {
		return s.sessions.Append(ctx, req.ThreadID, exchange)
	})
	if err != nil {
		return nil, fmt.Errorf("save exchange for thread %s: %w", req.ThreadID, err)
	}

	s.logger.Info("thread %s answered via %s in %d steps", req.ThreadID, result.Datasource, len(result.Path))
	return &Response{
		ThreadID:      req.ThreadID,
		Answer:        result.Answer,
		LowConfidence: result.LowConfidence,
		Datasource:    result.Datasource,
		Path:          result.Path,
		Documents:     result.Documents,
	}, nil
}

// Reset forgets a thread's history.
func (s *Service) Reset(ctx context.Context, threadID string) error {
	release, err := s.locks.acquire(ctx, threadID)
	if err != nil {
		return err
	}
	defer release()

	return upstream.Do(ctx, "session store", s.storeTimeout, func(ctx context.Context) error {
		return s.sessions.Delete(ctx, threadID)
	})
}
