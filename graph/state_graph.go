package graph

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// StateGraph is a directed graph of nodes that transform a state of type S.
// Execution is sequential: exactly one node is active at a time and the next
// node is chosen by a static edge or a conditional edge.
//
//	g := graph.NewStateGraph[MyState]()
//	g.AddNode("increment", "Increment counter", func(ctx context.Context, s MyState) (MyState, error) {
//	    s.Count++
//	    return s, nil
//	})
//	g.SetEntryPoint("increment")
//	g.AddEdge("increment", graph.END)
type StateGraph[S any] struct {
	nodes map[string]Node[S]

	// order keeps node registration order for deterministic export
	order []string

	edges []Edge

	conditionalEdges map[string]ConditionalEdge[S]

	entryPoint string

	retryPolicy *RetryPolicy

	stepLimit int
}

// Node is a named unit of work in the graph.
type Node[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// ConditionalEdge selects the next node from the current state. Targets lists
// the possible destinations; it is used for validation and visualization.
type ConditionalEdge[S any] struct {
	From      string
	Condition func(ctx context.Context, state S) string
	Targets   []string
}

// NewStateGraph creates an empty graph with the default step limit.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]ConditionalEdge[S]),
		stepLimit:        DefaultStepLimit,
	}
}

// AddNode adds a node. Adding a node with an existing name replaces it.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a static edge between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds an edge whose target is decided at runtime.
// A conditional edge takes precedence over static edges from the same node.
//
//	g.AddConditionalEdge("check", func(ctx context.Context, s MyState) string {
//	    if s.Count > 10 {
//	        return "high"
//	    }
//	    return "low"
//	}, "high", "low")
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string, targets ...string) {
	g.conditionalEdges[from] = ConditionalEdge[S]{
		From:      from,
		Condition: condition,
		Targets:   targets,
	}
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the retry policy applied to every node.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// SetStepLimit sets the maximum number of node executions per invocation.
// Non-positive values restore the default.
func (g *StateGraph[S]) SetStepLimit(limit int) {
	if limit <= 0 {
		limit = DefaultStepLimit
	}
	g.stepLimit = limit
}

// Compile validates the graph and returns a runnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}

	for _, edge := range g.edges {
		if _, ok := g.nodes[edge.From]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, edge.From)
		}
		if edge.To != END {
			if _, ok := g.nodes[edge.To]; !ok {
				return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, edge.To)
			}
		}
	}
	for from, ce := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
		for _, to := range ce.Targets {
			if to == END {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("%w: conditional edge target %s", ErrNodeNotFound, to)
			}
		}
	}

	return &StateRunnable[S]{graph: g}, nil
}

// Config carries per-invocation options.
type Config[S any] struct {
	// RunID identifies the invocation in listener events; generated when empty.
	RunID string

	// StepLimit overrides the graph step limit when positive.
	StepLimit int

	// Listeners receive node events for this invocation only.
	Listeners []NodeListener[S]
}

// StateRunnable is a compiled graph that can be invoked.
type StateRunnable[S any] struct {
	graph     *StateGraph[S]
	listeners []NodeListener[S]
}

// AddListener registers a listener notified on every invocation.
func (r *StateRunnable[S]) AddListener(listener NodeListener[S]) *StateRunnable[S] {
	r.listeners = append(r.listeners, listener)
	return r
}

// Graph returns the graph this runnable was compiled from.
func (r *StateRunnable[S]) Graph() *StateGraph[S] {
	return r.graph
}

// Invoke runs the graph from its entry point until END.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig runs the graph with per-invocation options. On error the
// last committed state is returned alongside the error.
func (r *StateRunnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config[S]) (S, error) {
	state := initialState

	listeners := slices.Clone(r.listeners)
	limit := r.graph.stepLimit
	runID := ""
	if config != nil {
		listeners = append(listeners, config.Listeners...)
		if config.StepLimit > 0 {
			limit = config.StepLimit
		}
		runID = config.RunID
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = WithRunID(ctx, runID)

	current := r.graph.entryPoint
	for steps := 0; current != END; steps++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if steps >= limit {
			return state, fmt.Errorf("%w: %d steps, last node %s", ErrStepLimitExceeded, limit, current)
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		notify(ctx, listeners, NodeEventStart, current, state, nil)
		next, err := r.executeNodeWithRetry(ctx, node, state)
		if err != nil {
			notify(ctx, listeners, NodeEventError, current, state, err)
			return state, &NodeError{Node: current, Err: err}
		}
		state = next
		notify(ctx, listeners, NodeEventComplete, current, state, nil)

		current, err = r.nextNode(ctx, current, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

func (r *StateRunnable[S]) nextNode(ctx context.Context, from string, state S) (string, error) {
	if ce, ok := r.graph.conditionalEdges[from]; ok {
		to := ce.Condition(ctx, state)
		if to == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", from)
		}
		if to != END {
			if _, ok := r.graph.nodes[to]; !ok {
				return "", fmt.Errorf("%w: %s (from %s)", ErrNodeNotFound, to, from)
			}
		}
		return to, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == from {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}
