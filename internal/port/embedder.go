package port

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text and returns the
	// model's output vector unchanged.
	Embed(text string) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
