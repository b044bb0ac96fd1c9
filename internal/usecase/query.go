package usecase

import (
	"fmt"
	"strings"

	"pdfchat/internal/domain"
	"pdfchat/internal/logger"
	"pdfchat/internal/port"
)

// insufficientContextMsg is returned without calling the language model when
// retrieval produced nothing to ground an answer in.
const insufficientContextMsg = "I don't have enough information to answer that question based on the documents you've uploaded."

// answerSystemPrompt constrains the model to the retrieved context.
const answerSystemPrompt = "You are a helpful assistant that answers questions based on the provided document context. " +
	"If the answer cannot be found in the context, say that you don't know. " +
	"Don't make up information. Provide accurate answers based only on the context given."

// unknownFile is the sentinel used when a search result carries no readable
// filename metadata.
const unknownFile = "unknown_file"

// QueryUseCase answers questions from stored document chunks: embed the
// query, search the store, assemble a bounded context, and ask the language
// model.
type QueryUseCase struct {
	embedder         port.Embedder
	store            port.VectorStore
	llm              port.LLM
	topK             int
	maxContextLength int
}

// NewQueryUseCase creates a new query use case.
func NewQueryUseCase(
	embedder port.Embedder,
	store port.VectorStore,
	llm port.LLM,
	topK int,
	maxContextLength int,
) *QueryUseCase {
	return &QueryUseCase{
		embedder:         embedder,
		store:            store,
		llm:              llm,
		topK:             topK,
		maxContextLength: maxContextLength,
	}
}

// BuildContext joins retrieved chunks into a prompt context, preserving the
// store's ranking order. An empty result list yields an empty string.
func BuildContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		filename := r.Chunk.Metadata.Filename
		if filename == "" {
			filename = unknownFile
		}
		parts = append(parts, fmt.Sprintf("Document: %s\n%s", filename, r.Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

// FormatSources lists the distinct filenames behind a set of search
// results, in ranking order.
func FormatSources(results []domain.SearchResult) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, r := range results {
		filename := r.Chunk.Metadata.Filename
		if filename == "" {
			filename = unknownFile
		}
		if seen[filename] {
			continue
		}
		seen[filename] = true
		sources = append(sources, filename)
	}
	return sources
}

// TruncateForDisplay shortens long passage text for terminal display. Text
// at or under max is returned unchanged.
func TruncateForDisplay(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// RetrieveContext embeds the query and gathers matching chunks from the
// store. Search-side degradation (backend failure, empty store) shows up
// here as an empty context, not an error.
func (u *QueryUseCase) RetrieveContext(query string) (string, []domain.SearchResult, error) {
	vec, err := u.embedder.Embed(query)
	if err != nil {
		return "", nil, &domain.EmbeddingError{Index: -1, Err: err}
	}

	results := u.store.SimilaritySearch(vec, u.topK)
	logger.Debug("retrieved %d results from similarity search", len(results))

	context := BuildContext(results)
	logger.Debug("context length: %d bytes", len(context))
	return context, results, nil
}

// GenerateAnswer asks the language model to answer the query strictly from
// the supplied context. An empty or whitespace-only context short-circuits
// to a fixed insufficient-information message without a model call; an
// oversized context is prefix-truncated to the configured maximum.
func (u *QueryUseCase) GenerateAnswer(query, context string) (string, error) {
	if strings.TrimSpace(context) == "" {
		return insufficientContextMsg, nil
	}

	if runes := []rune(context); len(runes) > u.maxContextLength {
		context = string(runes[:u.maxContextLength])
	}

	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", context, query)

	answer, err := u.llm.GenerateWithSystem(answerSystemPrompt, userPrompt)
	if err != nil {
		return "", &domain.AnswerGenerationError{Err: err}
	}
	return answer, nil
}

// ProcessQuery is the outward-facing boundary the UI layer calls. It never
// fails: any stage error becomes a renderable answer with empty context.
func (u *QueryUseCase) ProcessQuery(query string) domain.QueryResponse {
	context, results, err := u.RetrieveContext(query)
	if err != nil {
		logger.Warn("query pipeline failed: %v", err)
		return domain.QueryResponse{
			Answer: fmt.Sprintf("I encountered an error while processing your question: %v", err),
		}
	}

	answer, err := u.GenerateAnswer(query, context)
	if err != nil {
		logger.Warn("query pipeline failed: %v", err)
		return domain.QueryResponse{
			Answer: fmt.Sprintf("I encountered an error while processing your question: %v", err),
		}
	}

	return domain.QueryResponse{
		Answer:  answer,
		Context: context,
		Sources: FormatSources(results),
	}
}
