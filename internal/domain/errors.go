package domain

import "fmt"

// ExtractionError reports a failed document text extraction. It is fatal to
// the document being processed but never to other documents.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting text from %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingError reports a failed embedding call. Index identifies the
// failing input within a batch; -1 means a single-text call such as a query
// embedding.
type EmbeddingError struct {
	Index int
	Err   error
}

func (e *EmbeddingError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("embedding chunk %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("generating embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StorageWriteError reports a failed bulk insert. Individual rows rejected by
// the backend are logged and skipped inside the store client; this error
// means the write pipeline itself broke.
type StorageWriteError struct {
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storing chunks: %v", e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// AnswerGenerationError reports a failed language-model call. Unlike search
// failures, which degrade to empty results, generation failures surface to
// the caller.
type AnswerGenerationError struct {
	Err error
}

func (e *AnswerGenerationError) Error() string {
	return fmt.Sprintf("generating answer: %v", e.Err)
}

func (e *AnswerGenerationError) Unwrap() error { return e.Err }
