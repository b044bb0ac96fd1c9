package port

import "pdfchat/internal/domain"

// VectorStore persists chunk records and performs nearest-neighbor
// retrieval. Implementations are stateless façades over the backing store.
type VectorStore interface {
	// InsertChunks persists each record independently. A row the backend
	// rejects is logged and skipped; the call returns an error only when
	// the write pipeline itself fails.
	InsertChunks(chunks []domain.Chunk) error

	// SimilaritySearch returns up to topK rows ranked by similarity to the
	// query vector, filtered by the configured minimum-similarity
	// threshold. When nothing clears the threshold it falls back to up to
	// topK arbitrary rows from the collection. A backend failure degrades
	// to an empty result; callers treat "no results" as a normal outcome.
	SimilaritySearch(embedding []float32, topK int) []domain.SearchResult

	// GetByID returns the record with the given id. A missing id reports
	// found=false, never an error.
	GetByID(id string) (chunk domain.Chunk, found bool, err error)
}
