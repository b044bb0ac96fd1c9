package port

import "pdfchat/internal/domain"

// Chunker splits raw text into overlapping windows with positional metadata.
// Window parameters are validated at construction time, so chunking itself
// cannot fail.
type Chunker interface {
	Chunk(text string) []domain.Chunk
}
