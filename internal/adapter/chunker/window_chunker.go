package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pdfchat/internal/domain"
)

// WindowChunker splits text into fixed-size windows that overlap by a set
// number of characters. Size, overlap, and the recorded offsets all count
// characters (runes), not bytes, so multi-byte text never splits mid-rune.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker validates the window parameters up front: the step size
// (size - overlap) must stay positive or chunking would never advance.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got size=%d overlap=%d", size, overlap)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk emits windows in source order. Each emitted window gets a fresh
// unique id; windows that are empty after trimming whitespace are skipped
// and do not consume a chunk index. Filename and source metadata are
// attached by the caller afterwards, keeping the chunker document-agnostic.
func (c *WindowChunker) Chunk(text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap
	chunks := make([]domain.Chunk, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) == "" {
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ID:   uuid.New().String(),
			Text: window,
			Metadata: domain.ChunkMetadata{
				ChunkIndex: len(chunks),
				CharStart:  start,
				CharEnd:    end,
			},
		})
	}

	return chunks
}
