package usecase

import (
	"errors"
	"strings"
	"testing"

	"pdfchat/internal/adapter/chunker"
	"pdfchat/internal/adapter/embedding"
	"pdfchat/internal/adapter/store"
	"pdfchat/internal/domain"
)

// stubExtractor returns canned text, standing in for PDF parsing.
type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) Extract(data []byte, filename string) (string, error) {
	if e.err != nil {
		return "", &domain.ExtractionError{Filename: filename, Err: e.err}
	}
	return e.text, nil
}

// failAfterEmbedder fails on the nth call.
type failAfterEmbedder struct {
	inner *embedding.MockEmbedder
	after int
	calls int
}

func (e *failAfterEmbedder) Embed(text string) ([]float32, error) {
	e.calls++
	if e.calls > e.after {
		return nil, errors.New("embedding backend down")
	}
	return e.inner.Embed(text)
}

func (e *failAfterEmbedder) Dimension() int    { return e.inner.Dimension() }
func (e *failAfterEmbedder) ModelName() string { return "mock" }

func newIngestFixture(t *testing.T, text string) (*IngestUseCase, *store.MemoryStore) {
	t.Helper()
	ch, err := chunker.NewWindowChunker(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore(0.1)
	uc := NewIngestUseCase(&stubExtractor{text: text}, ch, embedding.NewMockEmbedder(32), st)
	return uc, st
}

func TestProcessPDFAttachesFileMetadata(t *testing.T) {
	uc, _ := newIngestFixture(t, strings.Repeat("some document text ", 20))

	chunks, err := uc.ProcessPDF([]byte("pdf-bytes"), "manual.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	for i, ch := range chunks {
		if ch.Metadata.Filename != "manual.pdf" {
			t.Errorf("chunk %d: expected filename manual.pdf, got %s", i, ch.Metadata.Filename)
		}
		if ch.Metadata.Source != "manual.pdf" {
			t.Errorf("chunk %d: expected source manual.pdf, got %s", i, ch.Metadata.Source)
		}
		if ch.Embedding != nil {
			t.Errorf("chunk %d: ProcessPDF must not attach embeddings", i)
		}
	}
}

func TestProcessPDFExtractionFailure(t *testing.T) {
	ch, err := chunker.NewWindowChunker(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	uc := NewIngestUseCase(
		&stubExtractor{err: errors.New("corrupt xref table")},
		ch,
		embedding.NewMockEmbedder(32),
		store.NewMemoryStore(0.1),
	)

	_, err = uc.ProcessPDF([]byte("bad"), "broken.pdf")
	var extErr *domain.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *domain.ExtractionError, got %v", err)
	}
}

func TestGenerateBatchEmbeddingsPreservesOrderAndCount(t *testing.T) {
	uc, _ := newIngestFixture(t, "")

	in := []domain.Chunk{
		{ID: "a", Text: "first"},
		{ID: "b", Text: "second"},
		{ID: "c", Text: "third"},
	}

	out, err := uc.GenerateBatchEmbeddings(in)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != len(in) {
		t.Fatalf("expected %d chunks out, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].ID != in[i].ID {
			t.Errorf("position %d: expected id %s, got %s", i, in[i].ID, out[i].ID)
		}
		if len(out[i].Embedding) != 32 {
			t.Errorf("position %d: expected 32-dim embedding, got %d", i, len(out[i].Embedding))
		}
	}
	// Inputs are not mutated.
	for i := range in {
		if in[i].Embedding != nil {
			t.Errorf("input chunk %d was mutated", i)
		}
	}
}

func TestGenerateBatchEmbeddingsFailureIdentifiesInput(t *testing.T) {
	ch, err := chunker.NewWindowChunker(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	emb := &failAfterEmbedder{inner: embedding.NewMockEmbedder(8), after: 2}
	uc := NewIngestUseCase(&stubExtractor{}, ch, emb, store.NewMemoryStore(0.1))

	in := []domain.Chunk{
		{ID: "a", Text: "one"},
		{ID: "b", Text: "two"},
		{ID: "c", Text: "three"},
	}

	out, err := uc.GenerateBatchEmbeddings(in)
	if out != nil {
		t.Error("expected no partial output on batch failure")
	}

	var embErr *domain.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *domain.EmbeddingError, got %v", err)
	}
	if embErr.Index != 2 {
		t.Errorf("expected failing index 2, got %d", embErr.Index)
	}
}

func TestIngestPDFStoresChunks(t *testing.T) {
	uc, st := newIngestFixture(t, strings.Repeat("chapter one text ", 30))

	n, err := uc.IngestPDF([]byte("pdf-bytes"), "book.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatal("expected stored chunks")
	}
	if st.Count() != n {
		t.Errorf("store holds %d chunks, reported %d", st.Count(), n)
	}
}

func TestIngestPDFEmptyDocument(t *testing.T) {
	uc, st := newIngestFixture(t, "   \n\t  ")

	n, err := uc.IngestPDF([]byte("pdf-bytes"), "blank.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 chunks for whitespace-only document, got %d", n)
	}
	if st.Count() != 0 {
		t.Errorf("expected empty store, got %d chunks", st.Count())
	}
}

func TestIngestPDFNothingStoredOnEmbeddingFailure(t *testing.T) {
	ch, err := chunker.NewWindowChunker(50, 10)
	if err != nil {
		t.Fatal(err)
	}
	emb := &failAfterEmbedder{inner: embedding.NewMockEmbedder(8), after: 1}
	st := store.NewMemoryStore(0.1)
	uc := NewIngestUseCase(
		&stubExtractor{text: strings.Repeat("plenty of text here ", 20)},
		ch, emb, st,
	)

	if _, err := uc.IngestPDF([]byte("pdf-bytes"), "doc.pdf"); err == nil {
		t.Fatal("expected embedding failure")
	}
	if st.Count() != 0 {
		t.Errorf("partial batch must not be committed, store holds %d chunks", st.Count())
	}
}
