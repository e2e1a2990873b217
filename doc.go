// SalarySe AI Assistant - an adaptive RAG chatbot for SalarySe.
//
// A crawler indexes the SalarySe website into a vector store. A graph
// structured agent answers questions by routing between a direct LLM answer
// and retrieval augmented generation, falls back to web search when the
// retrieved documents are not relevant, and checks every generated answer
// for groundedness and usefulness before returning it.
//
// # Quick Start
//
// Configure the backends through environment variables or a .env file:
//
//	LLM_PROVIDER=ollama
//	LLM_MODEL=llama3.1
//	TAVILY_API_KEY=tvly-...
//
// Then chat in the terminal:
//
//	go run ./cmd/assistant
//
// The index is built on first start when it is empty. Rebuild it with:
//
//	go run ./cmd/ingest -force
//
// # Packages
//
//   - graph: typed state graph engine with conditional edges, retries, listeners and Mermaid export
//   - prebuilt: the adaptive RAG agent, its router and graders
//   - assistant: the thread-aware service front-ends call
//   - rag, rag/store, rag/loader: documents, embeddings, vector stores and the web crawler
//   - tool: Tavily and Brave web search
//   - llm: language model clients over langchaingo and go-openai
//   - store: per-thread conversation history in memory, Redis or SQLite
//   - upstream: per-call timeouts and failure classification for external services
//   - config, bootstrap, log: configuration, wiring and logging
//
// # Library use
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	app, err := bootstrap.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	resp, err := app.Service.Ask(ctx, assistant.Request{ThreadID: "t1", Question: "What is SalarySe?"})
//	if err != nil {
//		fmt.Println(assistant.UserMessage(err))
//	}
package salaryse // import "github.com/salaryse/assistant"
