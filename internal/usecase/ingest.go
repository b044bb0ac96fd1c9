package usecase

import (
	"pdfchat/internal/domain"
	"pdfchat/internal/logger"
	"pdfchat/internal/port"
)

// IngestUseCase wires extraction, chunking, embedding and storage for one
// document at a time. It owns no business logic beyond sequencing and error
// translation; a failure at any stage aborts only the document being
// processed.
type IngestUseCase struct {
	extractor port.Extractor
	chunker   port.Chunker
	embedder  port.Embedder
	store     port.VectorStore
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.VectorStore,
) *IngestUseCase {
	return &IngestUseCase{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
	}
}

// ProcessPDF extracts the text layer from the document and chunks it,
// attaching filename and source metadata to every chunk. Embeddings are not
// generated here.
func (u *IngestUseCase) ProcessPDF(data []byte, filename string) ([]domain.Chunk, error) {
	text, err := u.extractor.Extract(data, filename)
	if err != nil {
		return nil, err
	}

	chunks := u.chunker.Chunk(text)
	for i := range chunks {
		chunks[i].Metadata.Filename = filename
		chunks[i].Metadata.Source = filename
	}

	logger.Debug("%s: extracted %d chars into %d chunks", filename, len(text), len(chunks))
	return chunks, nil
}

// GenerateBatchEmbeddings attaches an embedding to every chunk, preserving
// input order and count. The first remote failure aborts the whole batch so
// no partially embedded document ever reaches the store.
func (u *IngestUseCase) GenerateBatchEmbeddings(chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, len(chunks))
	for i, chunk := range chunks {
		vec, err := u.embedder.Embed(chunk.Text)
		if err != nil {
			return nil, &domain.EmbeddingError{Index: i, Err: err}
		}
		chunk.Embedding = vec
		out[i] = chunk
	}
	return out, nil
}

// StoreChunks writes embedded chunks to the vector store.
func (u *IngestUseCase) StoreChunks(chunks []domain.Chunk) error {
	if err := u.store.InsertChunks(chunks); err != nil {
		return &domain.StorageWriteError{Err: err}
	}
	return nil
}

// IngestPDF runs the full ingestion pipeline for one document and returns
// the number of chunks stored.
func (u *IngestUseCase) IngestPDF(data []byte, filename string) (int, error) {
	chunks, err := u.ProcessPDF(data, filename)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		logger.Info("%s: no extractable text", filename)
		return 0, nil
	}

	embedded, err := u.GenerateBatchEmbeddings(chunks)
	if err != nil {
		return 0, err
	}

	if err := u.StoreChunks(embedded); err != nil {
		return 0, err
	}

	return len(embedded), nil
}
