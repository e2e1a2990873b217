package prebuilt

import (
	"fmt"
	"strings"

	"github.com/salaryse/assistant/rag"
	"github.com/salaryse/assistant/store"
)

const (
	routerHeader       = "You are an expert at routing a user question to a vectorstore or a direct answer."
	relevanceHeader    = "You are a grader assessing relevance of a retrieved document to a user question."
	groundednessHeader = "You are a grader assessing whether an answer is grounded in / supported by a set of facts."
	answerHeader       = "You are a grader assessing whether an answer addresses / resolves a question."
	generateHeader     = "You are an assistant for question-answering tasks about SalarySe."
	directHeader       = "You are the SalarySe AI Assistant, a friendly conversational helper."
)

func routerPrompt(question string) string {
	return routerHeader + `
Use the vectorstore for questions about SalarySe: the company, its products and features, salary advances,
credit, savings, employers, employees, pricing, support or anything found on the SalarySe website.
You do not need to be stringent with the keywords in the question related to these topics.
Use direct_answer for greetings, small talk and general questions that need no SalarySe information.
Give a binary choice 'vectorstore' or 'direct_answer' based on the question.
Return a JSON with a single key 'datasource' and no preamble or explanation.

Question to route: ` + question
}

func relevancePrompt(question string, doc rag.Document) string {
	return relevanceHeader + `
If the document contains keywords related to the user question, grade it as relevant.
It does not need to be a stringent test. The goal is to filter out erroneous retrievals.
Give a binary score 'yes' or 'no' to indicate whether the document is relevant to the question.
Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

Here is the retrieved document:

` + doc.Content + `

Here is the user question: ` + question
}

func groundednessPrompt(docs []rag.Document, generation string) string {
	return groundednessHeader + `
Give a binary 'yes' or 'no' score to indicate whether the answer is grounded in / supported by a set of facts.
Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

Here are the facts:
-------
` + formatDocuments(docs) + `
-------
Here is the answer: ` + generation
}

func answerPrompt(question, generation string) string {
	return answerHeader + `
Give a binary score 'yes' or 'no'. 'yes' means that the answer resolves the question.
Provide the binary score as a JSON with a single key 'score' and no preamble or explanation.

The answer is: ` + generation + `
The question is: ` + question
}

func generatePrompt(question string, docs []rag.Document, history []store.Exchange) string {
	var sb strings.Builder
	sb.WriteString(generateHeader)
	sb.WriteString(`
Use the following pieces of retrieved context to answer the question.
If you don't know the answer, just say that you don't know.
Give a detailed answer but limit the response to 5 lines maximum.
`)
	writeHistory(&sb, history)
	fmt.Fprintf(&sb, "\nQuestion: %s\nContext:\n%s\nAnswer:", question, formatDocuments(docs))
	return sb.String()
}

func directPrompt(question string, history []store.Exchange) string {
	var sb strings.Builder
	sb.WriteString(directHeader)
	sb.WriteString(`
Answer the user's message directly and concisely, in at most 5 lines.
If the user asks about SalarySe specifics you are unsure of, say so.
`)
	writeHistory(&sb, history)
	fmt.Fprintf(&sb, "\nQuestion: %s\nAnswer:", question)
	return sb.String()
}

func writeHistory(sb *strings.Builder, history []store.Exchange) {
	if len(history) == 0 {
		return
	}
	sb.WriteString("\nConversation so far:\n")
	for _, ex := range history {
		fmt.Fprintf(sb, "User: %s\nAssistant: %s\n", ex.Question, ex.Answer)
	}
}

func formatDocuments(docs []rag.Document) string {
	if len(docs) == 0 {
		return "(no documents)"
	}
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, "\n\n")
}
