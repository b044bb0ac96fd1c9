package domain

// Chunk is the unit persisted to and retrieved from the vector store: a
// bounded, overlapping window of a source document plus its embedding and
// positional metadata.
type Chunk struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  ChunkMetadata
}

// ChunkMetadata carries positional and provenance information for a chunk.
// CharStart and CharEnd are half-open byte offsets into the source text.
type ChunkMetadata struct {
	ChunkIndex int    `json:"chunk_index"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
	Filename   string `json:"filename,omitempty"`
	Source     string `json:"source,omitempty"`
}

// SearchResult is a chunk returned by similarity search together with its
// similarity score. Higher is more similar.
type SearchResult struct {
	Chunk      Chunk
	Similarity float64
}

// QueryResponse is the outward-facing result of answering a query. It is
// always renderable: when a pipeline stage fails, Answer holds a
// human-readable message and Context is empty.
type QueryResponse struct {
	Answer  string
	Context string
	Sources []string
}
