package prebuilt

import (
	"github.com/salaryse/assistant/rag"
	"github.com/salaryse/assistant/store"
)

// Datasource is the router's decision.
type Datasource string

const (
	DatasourceVectorStore  Datasource = "vectorstore"
	DatasourceDirectAnswer Datasource = "direct_answer"
)

// Verdict is the outcome of the last generation check.
type Verdict string

const (
	VerdictNone Verdict = ""
	// VerdictNotSupported means the answer is not grounded in the documents.
	VerdictNotSupported Verdict = "not_supported"
	// VerdictNotUseful means the answer is grounded but does not resolve the question.
	VerdictNotUseful Verdict = "not_useful"
	// VerdictUseful means the answer passed both checks.
	VerdictUseful Verdict = "useful"
	// VerdictExhausted means checks failed past the retry budget.
	VerdictExhausted Verdict = "exhausted"
)

// GraphState is threaded through the adaptive RAG graph. Generation is set
// by generate or generate_direct; Documents by retrieve and web_search.
type GraphState struct {
	Question   string
	Documents  []rag.Document
	WebSearch  bool
	Generation string
	Datasource Datasource
	History    []store.Exchange

	// Retries counts failed generation checks.
	Retries       int
	Verdict       Verdict
	LowConfidence bool
	Generations   int
}
