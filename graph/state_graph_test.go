package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Count int
	Trail []string
}

func appendNode(name string) func(context.Context, testState) (testState, error) {
	return func(_ context.Context, s testState) (testState, error) {
		s.Count++
		s.Trail = append(s.Trail, name)
		return s, nil
	}
}

func TestStateGraph_LinearExecution(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("a", "first", appendNode("a"))
	g.AddNode("b", "second", appendNode("b"))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.NoError(t, err)
	assert.Equal(t, 2, final.Count)
	assert.Equal(t, []string{"a", "b"}, final.Trail)
}

func TestStateGraph_ConditionalEdgeLoop(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("inc", "increment", appendNode("inc"))
	g.SetEntryPoint("inc")
	g.AddConditionalEdge("inc", func(_ context.Context, s testState) string {
		if s.Count < 3 {
			return "inc"
		}
		return END
	}, "inc", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	recorder := &PathRecorder[testState]{}
	final, err := runnable.InvokeWithConfig(context.Background(), testState{}, &Config[testState]{
		Listeners: []NodeListener[testState]{recorder},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, final.Count)
	assert.Equal(t, []string{"inc", "inc", "inc"}, recorder.Path())
	assert.Equal(t, 3, recorder.Count("inc"))
}

func TestStateGraph_ConditionalEdgeOverridesStaticEdge(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("a", "", appendNode("a"))
	g.AddNode("b", "", appendNode("b"))
	g.AddNode("c", "", appendNode("c"))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddConditionalEdge("a", func(context.Context, testState) string { return "c" }, "b", "c")
	g.AddEdge("b", END)
	g.AddEdge("c", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, final.Trail)
}

func TestStateGraph_CompileErrors(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("a", "", appendNode("a"))
	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrEntryPointNotSet)

	g.SetEntryPoint("missing")
	_, err = g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)

	g.SetEntryPoint("a")
	g.AddEdge("a", "ghost")
	_, err = g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestStateGraph_NoOutgoingEdge(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("a", "", appendNode("a"))
	g.SetEntryPoint("a")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), testState{})
	assert.ErrorIs(t, err, ErrNoOutgoingEdge)
}

func TestStateGraph_StepLimit(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("spin", "", appendNode("spin"))
	g.SetEntryPoint("spin")
	g.AddEdge("spin", "spin")
	g.SetStepLimit(5)

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	assert.ErrorIs(t, err, ErrStepLimitExceeded)
	assert.Equal(t, 5, final.Count)

	_, err = runnable.InvokeWithConfig(context.Background(), testState{}, &Config[testState]{StepLimit: 2})
	assert.ErrorIs(t, err, ErrStepLimitExceeded)
}

func TestStateGraph_NodeErrorKeepsLastState(t *testing.T) {
	boom := errors.New("boom")
	g := NewStateGraph[testState]()
	g.AddNode("a", "", appendNode("a"))
	g.AddNode("fail", "", func(context.Context, testState) (testState, error) {
		return testState{}, boom
	})
	g.SetEntryPoint("a")
	g.AddEdge("a", "fail")
	g.AddEdge("fail", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "fail", nodeErr.Node)
	assert.Equal(t, []string{"a"}, final.Trail)
}

func TestStateGraph_RetryPolicy(t *testing.T) {
	transient := errors.New("transient")
	attempts := 0

	g := NewStateGraph[testState]()
	g.AddNode("flaky", "", func(_ context.Context, s testState) (testState, error) {
		attempts++
		if attempts < 3 {
			return s, transient
		}
		s.Count = attempts
		return s, nil
	})
	g.SetEntryPoint("flaky")
	g.AddEdge("flaky", END)
	g.SetRetryPolicy(&RetryPolicy{
		MaxRetries:      2,
		BackoffStrategy: FixedBackoff,
		BaseDelay:       time.Millisecond,
		Retryable:       func(err error) bool { return errors.Is(err, transient) },
	})

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.NoError(t, err)
	assert.Equal(t, 3, final.Count)
}

func TestStateGraph_RetryPolicySkipsNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	attempts := 0

	g := NewStateGraph[testState]()
	g.AddNode("bad", "", func(_ context.Context, s testState) (testState, error) {
		attempts++
		return s, permanent
	})
	g.SetEntryPoint("bad")
	g.AddEdge("bad", END)
	g.SetRetryPolicy(&RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Retryable:  func(error) bool { return false },
	})

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), testState{})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestStateGraph_ContextCancelled(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("a", "", appendNode("a"))
	g.SetEntryPoint("a")
	g.AddEdge("a", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runnable.Invoke(ctx, testState{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateGraph_ListenersSeeEvents(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("a", "", appendNode("a"))
	g.SetEntryPoint("a")
	g.AddEdge("a", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	var events []NodeEvent
	var runIDs []string
	runnable.AddListener(NodeListenerFunc[testState](func(ctx context.Context, event NodeEvent, name string, _ testState, _ error) {
		events = append(events, event)
		runIDs = append(runIDs, RunIDFromContext(ctx))
	}))
	runnable.AddListener(NodeListenerFunc[testState](func(context.Context, NodeEvent, string, testState, error) {
		panic("listener bug")
	}))

	_, err = runnable.InvokeWithConfig(context.Background(), testState{}, &Config[testState]{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, []NodeEvent{NodeEventStart, NodeEventComplete}, events)
	assert.Equal(t, []string{"run-1", "run-1"}, runIDs)
}
