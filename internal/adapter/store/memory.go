package store

import (
	"math"
	"sort"
	"sync"

	"pdfchat/internal/domain"
)

// MemoryStore is an in-process VectorStore with the same retrieval contract
// as the Supabase client: brute-force cosine search, threshold filter, and
// a most-recently-inserted fallback when nothing clears the threshold.
// Used in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	chunks    map[string]domain.Chunk
	order     []string
	threshold float64
}

// NewMemoryStore creates an empty in-memory store with the given minimum
// similarity threshold.
func NewMemoryStore(threshold float64) *MemoryStore {
	return &MemoryStore{
		chunks:    make(map[string]domain.Chunk),
		threshold: threshold,
	}
}

// InsertChunks stores every chunk, keyed by id.
func (s *MemoryStore) InsertChunks(chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if _, exists := s.chunks[chunk.ID]; !exists {
			s.order = append(s.order, chunk.ID)
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// SimilaritySearch ranks all stored chunks by cosine similarity to the
// query vector, keeps those at or above the threshold, and returns the top
// K. When no chunk clears the threshold it falls back to the most recently
// inserted chunks.
func (s *MemoryStore) SimilaritySearch(embedding []float32, topK int) []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return nil
	}

	scored := make([]domain.SearchResult, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		sim := cosineSimilarity(embedding, chunk.Embedding)
		if sim < s.threshold {
			continue
		}
		scored = append(scored, domain.SearchResult{Chunk: chunk, Similarity: sim})
	}

	if len(scored) == 0 {
		return s.recentChunks(topK)
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored
}

// recentChunks returns up to topK chunks, most recently inserted first.
func (s *MemoryStore) recentChunks(topK int) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, topK)
	for i := len(s.order) - 1; i >= 0 && len(results) < topK; i-- {
		results = append(results, domain.SearchResult{Chunk: s.chunks[s.order[i]]})
	}
	return results
}

// GetByID returns the chunk with the given id.
func (s *MemoryStore) GetByID(id string) (domain.Chunk, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[id]
	return chunk, ok, nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
