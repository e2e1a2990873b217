// Package assistant is the entry point front-ends call with a thread id and
// a question. It validates the request, serialises work per thread, feeds
// the thread's history to the adaptive RAG agent and records the exchange.
package assistant
