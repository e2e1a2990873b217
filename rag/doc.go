// Package rag holds the retrieval side of the assistant.
//
// Documents are chunks of scraped text with metadata. An Ingestor loads
// pages, splits them with a TextSplitter, embeds the chunks with an Embedder
// and writes them to a VectorStore. A VectorRetriever answers queries with
// the top-K most similar chunks.
//
//	splitter := rag.NewRecursiveSplitter(1000, 100)
//	embedder := rag.NewLangChainEmbedder(ollamaEmbedder)
//	ingestor := rag.NewIngestor(webLoader, splitter, embedder, vectorStore)
//	if _, err := ingestor.EnsureIndexed(ctx); err != nil {
//		return err
//	}
//	retriever := rag.NewVectorRetriever(embedder, vectorStore, 3)
//	docs, err := retriever.Retrieve(ctx, "What is SalarySe?")
//
// Vector store implementations live in rag/store and the web crawler in
// rag/loader.
package rag
