// Package prebuilt provides the adaptive RAG agent that answers SalarySe
// questions.
//
// The agent is a graph built on the graph package:
//
//	route ─┬─> generate_direct ─> END
//	       └─> retrieve ─> grade_documents ─┬─> web_search ─> generate
//	                                        └─> generate
//	generate ─> grade_generation ─┬─> END            (grounded and useful)
//	                              ├─> generate       (not grounded)
//	                              └─> web_search     (grounded, not useful)
//
// # Router and graders
//
// The Router asks the model for {"datasource": "vectorstore"|"direct_answer"}
// and fails with ErrRoutingAmbiguous on anything else. Graders ask for
// {"score": "yes"|"no"} and fail with ErrGradingFailed on anything else.
//
// # Retry budget
//
// Each failed generation check increments GraphState.Retries. Once the count
// exceeds AdaptiveRAGConfig.MaxRetries the FallbackPolicy applies: either the
// last generation is returned with LowConfidence set, or Run fails with
// ErrRetryBudgetExhausted.
//
// # Usage
//
//	agent, err := prebuilt.NewAdaptiveRAG(prebuilt.AdaptiveRAGConfig{
//		LLM:       client,
//		Retriever: rag.NewVectorRetriever(embedder, vectorStore, 3),
//		Searcher:  tool.NewTavilySearch(apiKey),
//	})
//	if err != nil {
//		return err
//	}
//	result, err := agent.Run(ctx, "What is SalarySe?", history)
package prebuilt
