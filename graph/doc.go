// Package graph provides a small typed state machine engine.
//
// A StateGraph[S] holds named nodes that each take the current state and
// return the next one. Static edges and conditional edges choose the next
// node; execution stops at END. Invocations are sequential, bounded by a step
// limit, and may retry failing nodes according to a RetryPolicy.
//
//	g := graph.NewStateGraph[State]()
//	g.AddNode("classify", "Pick a branch", classify)
//	g.AddNode("answer", "Answer directly", answer)
//	g.AddNode("lookup", "Look something up", lookup)
//	g.SetEntryPoint("classify")
//	g.AddConditionalEdge("classify", func(ctx context.Context, s State) string {
//		if s.NeedsLookup {
//			return "lookup"
//		}
//		return "answer"
//	}, "lookup", "answer")
//	g.AddEdge("lookup", "answer")
//	g.AddEdge("answer", graph.END)
//
//	runnable, err := g.Compile()
//	if err != nil {
//		return err
//	}
//	final, err := runnable.Invoke(ctx, State{Question: q})
//
// Listeners observe node start, completion and failure. LoggingListener
// writes them to a log.Logger and PathRecorder keeps the visited path.
// Exporter renders the graph as a Mermaid flowchart.
package graph
