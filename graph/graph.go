package graph

import (
	"errors"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrStepLimitExceeded is returned when an invocation runs more node steps than allowed.
	ErrStepLimitExceeded = errors.New("step limit exceeded")
)

// DefaultStepLimit bounds the number of node executions in a single invocation.
const DefaultStepLimit = 50

// Edge represents an edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}

// NodeError wraps a failure returned by a node.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return "error in node " + e.Node + ": " + e.Err.Error()
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
