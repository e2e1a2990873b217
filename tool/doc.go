// Package tool provides the web search capability used when the local
// index cannot answer a question.
//
// Two providers implement WebSearcher: Tavily (the default) and Brave.
//
//	searcher, err := tool.NewTavilySearch(os.Getenv("TAVILY_API_KEY"))
//	results, err := searcher.Search(ctx, "SalarySe funding", 3)
package tool
