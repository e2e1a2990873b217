package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExporter_DrawMermaid(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("route", "", appendNode("route"))
	g.AddNode("answer", "", appendNode("answer"))
	g.AddNode("lookup", "", appendNode("lookup"))
	g.SetEntryPoint("route")
	g.AddConditionalEdge("route", func(context.Context, testState) string { return "answer" }, "answer", "lookup")
	g.AddEdge("lookup", "answer")
	g.AddEdge("answer", END)

	mermaid := NewExporter(g).DrawMermaid()

	assert.Contains(t, mermaid, "flowchart TD")
	assert.Contains(t, mermaid, "START --> route")
	assert.Contains(t, mermaid, "route -.-> answer")
	assert.Contains(t, mermaid, "route -.-> lookup")
	assert.Contains(t, mermaid, "lookup --> answer")
	assert.Contains(t, mermaid, "answer --> END")
	assert.Contains(t, mermaid, "END([\"END\"])")
}

func TestExporter_DirectionAndUndeclaredTargets(t *testing.T) {
	g := NewStateGraph[testState]()
	g.AddNode("a", "", appendNode("a"))
	g.SetEntryPoint("a")
	g.AddConditionalEdge("a", func(context.Context, testState) string { return END })

	mermaid := NewExporter(g).DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})

	assert.Contains(t, mermaid, "flowchart LR")
	assert.Contains(t, mermaid, "a -.-> a_condition((?))")
	assert.NotContains(t, mermaid, "END([\"END\"])")
}
