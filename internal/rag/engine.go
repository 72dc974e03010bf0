// Package rag answers questions over the ingested document corpus by
// retrieving relevant chunks from the vector store and prompting the LLM
// with them as context.
package rag

import (
	"context"
	"fmt"
	"strings"

	"doculens/internal/contextutil"
	"doculens/internal/llm"
	"doculens/internal/vectorstore"
)

const (
	defaultK = 5
	maxK     = 20
)

// noAnswerFallback is returned when retrieval finds nothing at all.
const noAnswerFallback = "I couldn't find any relevant information in the ingested documents to answer this question."

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question by retrieving relevant chunks and generating an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// StreamAsk is like Ask but delivers the answer incrementally through
	// onChunk. The citations are returned once the stream completes.
	StreamAsk(ctx context.Context, req AskRequest, onChunk func(chunk string) error) ([]Citation, error)
}

// Embedder embeds the question for similarity search.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher performs similarity search over the chunk collection.
type Searcher interface {
	SearchChunks(ctx context.Context, query []float32, k int) ([]vectorstore.ScoredChunk, error)
}

// ChatClient generates the answer from the assembled prompt.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
	StreamChat(ctx context.Context, messages []llm.Message, callback func(chunk string) error) error
}

type ragEngine struct {
	embedder Embedder
	searcher Searcher
	chat     ChatClient
}

// NewEngine creates a new RAG engine.
func NewEngine(embedder Embedder, searcher Searcher, chat ChatClient) Engine {
	return &ragEngine{
		embedder: embedder,
		searcher: searcher,
		chat:     chat,
	}
}

func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	messages, sources, err := e.prepare(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}
	if messages == nil {
		return AskResponse{Answer: noAnswerFallback, Sources: []Citation{}}, nil
	}

	logger := contextutil.LoggerFromContext(ctx)
	answer, err := e.chat.Chat(ctx, messages)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	logger.InfoContext(ctx, "RAG query completed", "chunks_used", len(sources), "answer_length", len(answer))
	return AskResponse{Answer: answer, Sources: sources}, nil
}

func (e *ragEngine) StreamAsk(ctx context.Context, req AskRequest, onChunk func(chunk string) error) ([]Citation, error) {
	messages, sources, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		if err := onChunk(noAnswerFallback); err != nil {
			return nil, err
		}
		return []Citation{}, nil
	}

	if err := e.chat.StreamChat(ctx, messages, onChunk); err != nil {
		return nil, fmt.Errorf("failed to stream LLM response: %w", err)
	}
	return sources, nil
}

// prepare runs retrieval and builds the LLM messages. A nil message slice
// with nil error means retrieval came back empty and the caller should use
// the fallback answer.
func (e *ragEngine) prepare(ctx context.Context, req AskRequest) ([]llm.Message, []Citation, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, nil, fmt.Errorf("question must not be empty")
	}

	k := req.K
	if k <= 0 {
		k = defaultK
	}
	if k > maxK {
		k = maxK
	}

	logger.InfoContext(ctx, "RAG query started", "question_length", len(question), "k", k)

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return nil, nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, nil, fmt.Errorf("no embedding returned for question")
	}

	results, err := e.searcher.SearchChunks(ctx, embeddings[0], k)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "error", err)
		return nil, nil, fmt.Errorf("failed to search vector store: %w", err)
	}
	logger.InfoContext(ctx, "vector search completed", "results_count", len(results), "k_requested", k)

	if len(results) == 0 {
		return nil, nil, nil
	}

	var contextBuilder strings.Builder
	contextBuilder.WriteString("--- Context from documents ---\n\n")
	sources := make([]Citation, 0, len(results))
	for _, result := range results {
		chunk := result.Chunk
		contextBuilder.WriteString(fmt.Sprintf("Document: %s, Page: %d\n", chunk.FileName, chunk.PageNumber))
		contextBuilder.WriteString(fmt.Sprintf("Content: %s\n\n", chunk.Text))
		sources = append(sources, Citation{
			FileName:   chunk.FileName,
			FilePath:   chunk.FilePath,
			PageNumber: chunk.PageNumber,
		})
	}
	contextBuilder.WriteString("--- End Context ---")

	systemPrompt := "You are a helpful assistant that answers questions based on the provided context from the user's documents. " +
		"Answer the question using only the information from the context below. If the context doesn't contain " +
		"enough information to answer the question, say so. Cite the document and page when possible."

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("%s\n\n%s", question, contextBuilder.String())},
	}
	return messages, sources, nil
}
