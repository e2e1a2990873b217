package graph

import (
	"context"
	"sync"

	"github.com/salaryse/assistant/log"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"
)

// NodeListener receives node lifecycle events.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent, nodeName string, state S, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	f(ctx, event, nodeName, state, err)
}

// notify calls listeners synchronously, in order. A panicking listener does
// not abort the invocation.
func notify[S any](ctx context.Context, listeners []NodeListener[S], event NodeEvent, nodeName string, state S, err error) {
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("listener panic on %s/%s: %v", nodeName, event, r)
				}
			}()
			l.OnNodeEvent(ctx, event, nodeName, state, err)
		}()
	}
}

// LoggingListener logs node events through a log.Logger.
type LoggingListener[S any] struct {
	logger log.Logger
}

// NewLoggingListener creates a listener that logs to logger, or to the
// package-level logger when logger is nil.
func NewLoggingListener[S any](logger log.Logger) *LoggingListener[S] {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &LoggingListener[S]{logger: logger}
}

func (l *LoggingListener[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, _ S, err error) {
	runID := RunIDFromContext(ctx)
	switch event {
	case NodeEventStart:
		l.logger.Debug("[%s] node %s started", runID, nodeName)
	case NodeEventComplete:
		l.logger.Debug("[%s] node %s completed", runID, nodeName)
	case NodeEventError:
		l.logger.Error("[%s] node %s failed: %v", runID, nodeName, err)
	}
}

// PathRecorder records the names of nodes in the order they started.
type PathRecorder[S any] struct {
	mu   sync.Mutex
	path []string
}

func (p *PathRecorder[S]) OnNodeEvent(_ context.Context, event NodeEvent, nodeName string, _ S, _ error) {
	if event != NodeEventStart {
		return
	}
	p.mu.Lock()
	p.path = append(p.path, nodeName)
	p.mu.Unlock()
}

// Path returns a copy of the recorded node names.
func (p *PathRecorder[S]) Path() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.path))
	copy(out, p.path)
	return out
}

// Count returns how many times nodeName started.
func (p *PathRecorder[S]) Count(nodeName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, name := range p.path {
		if name == nodeName {
			n++
		}
	}
	return n
}
