package store

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdfchat/internal/domain"
)

func newTestStore(t *testing.T, srvURL string) *SupabaseStore {
	t.Helper()
	t.Setenv("PDFCHAT_TEST_STORE_URL", srvURL)
	t.Setenv("PDFCHAT_TEST_STORE_KEY", "service-key")

	s, err := NewSupabaseStore("PDFCHAT_TEST_STORE_URL", "PDFCHAT_TEST_STORE_KEY", "pdf_documents", 0.1, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testChunk(id, text, filename string) domain.Chunk {
	return domain.Chunk{
		ID:        id,
		Text:      text,
		Embedding: []float32{0.1, 0.2, 0.3},
		Metadata: domain.ChunkMetadata{
			ChunkIndex: 0,
			CharStart:  0,
			CharEnd:    len(text),
			Filename:   filename,
			Source:     filename,
		},
	}
}

func TestNewSupabaseStoreMissingCredentials(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_STORE_URL", "")
	t.Setenv("PDFCHAT_TEST_STORE_KEY", "")

	if _, err := NewSupabaseStore("PDFCHAT_TEST_STORE_URL", "PDFCHAT_TEST_STORE_KEY", "t", 0.1, 0); err == nil {
		t.Fatal("expected error for missing URL")
	}

	t.Setenv("PDFCHAT_TEST_STORE_URL", "https://example.supabase.co")
	if _, err := NewSupabaseStore("PDFCHAT_TEST_STORE_URL", "PDFCHAT_TEST_STORE_KEY", "t", 0.1, 0); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestInsertChunks(t *testing.T) {
	var inserted []row
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/rest/v1/pdf_documents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "service-key" {
			t.Error("missing apikey header")
		}

		var rec row
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Fatal(err)
		}
		inserted = append(inserted, rec)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	chunks := []domain.Chunk{
		testChunk("c1", "first chunk", "report.pdf"),
		testChunk("c2", "second chunk", "report.pdf"),
	}
	if err := s.InsertChunks(chunks); err != nil {
		t.Fatal(err)
	}

	if len(inserted) != 2 {
		t.Fatalf("expected 2 inserted rows, got %d", len(inserted))
	}
	if inserted[0].ID != "c1" || inserted[0].Content != "first chunk" {
		t.Errorf("unexpected first row %+v", inserted[0])
	}

	// Metadata travels as a JSON-encoded string.
	var encoded string
	if err := json.Unmarshal(inserted[0].Metadata, &encoded); err != nil {
		t.Fatalf("metadata is not a JSON string: %v", err)
	}
	var meta domain.ChunkMetadata
	if err := json.Unmarshal([]byte(encoded), &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Filename != "report.pdf" {
		t.Errorf("expected filename report.pdf, got %s", meta.Filename)
	}

	// The embedding is written as a plain JSON array.
	var vec []float32
	if err := json.Unmarshal(inserted[0].Embedding, &vec); err != nil {
		t.Fatalf("embedding is not a JSON array: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 embedding values, got %d", len(vec))
	}
}

func TestInsertChunksSkipsRejectedRows(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 2 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	chunks := []domain.Chunk{
		testChunk("c1", "a", "f.pdf"),
		testChunk("c2", "b", "f.pdf"),
		testChunk("c3", "c", "f.pdf"),
	}

	// A rejected row is logged and skipped; later rows are still written
	// and the call reports success.
	if err := s.InsertChunks(chunks); err != nil {
		t.Fatalf("expected success despite rejected row, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 insert attempts, got %d", attempts)
	}
}

func TestInsertChunksTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Connections now fail outright.

	s := newTestStore(t, srv.URL)

	if err := s.InsertChunks([]domain.Chunk{testChunk("c1", "a", "f.pdf")}); err == nil {
		t.Fatal("expected error when the write pipeline breaks")
	}
}

func TestSimilaritySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/match_documents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.MatchCount != 5 {
			t.Errorf("expected match_count 5, got %d", req.MatchCount)
		}
		if req.MatchThreshold != 0.1 {
			t.Errorf("expected match_threshold 0.1, got %g", req.MatchThreshold)
		}

		fmt.Fprint(w, `[
			{"id":"c1","content":"top match","metadata":"{\"filename\":\"a.pdf\",\"chunk_index\":3}","similarity":0.92},
			{"id":"c2","text":"legacy text field","metadata":{"filename":"b.pdf"},"similarity":0.45}
		]`)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	results := s.SimilaritySearch([]float32{0.1, 0.2, 0.3}, 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Chunk.ID != "c1" || results[0].Similarity != 0.92 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[0].Chunk.Metadata.Filename != "a.pdf" || results[0].Chunk.Metadata.ChunkIndex != 3 {
		t.Errorf("string-encoded metadata not decoded: %+v", results[0].Chunk.Metadata)
	}

	// The legacy "text" field and object-shaped metadata normalize too.
	if results[1].Chunk.Text != "legacy text field" {
		t.Errorf("expected legacy text fallback, got %q", results[1].Chunk.Text)
	}
	if results[1].Chunk.Metadata.Filename != "b.pdf" {
		t.Errorf("object metadata not decoded: %+v", results[1].Chunk.Metadata)
	}
}

func TestSimilaritySearchFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/rest/v1/rpc/") {
			fmt.Fprint(w, `[]`)
			return
		}
		// Fallback plain select.
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("expected limit=5, got %s", got)
		}
		fmt.Fprint(w, `[{"id":"c9","content":"arbitrary row","metadata":"{\"filename\":\"z.pdf\"}"}]`)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	results := s.SimilaritySearch([]float32{0.5, 0.5, 0.5}, 5)
	if len(results) != 1 {
		t.Fatalf("expected 1 fallback row, got %d", len(results))
	}
	if results[0].Chunk.ID != "c9" || results[0].Similarity != 0 {
		t.Errorf("unexpected fallback result %+v", results[0])
	}
}

func TestSimilaritySearchBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	// Backend failures degrade to an empty result, never an error.
	if results := s.SimilaritySearch([]float32{0.1}, 5); len(results) != 0 {
		t.Errorf("expected empty result on backend failure, got %d rows", len(results))
	}
}

func TestGetByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.c1" {
			fmt.Fprint(w, `[{"id":"c1","content":"found me","metadata":"{\"filename\":\"a.pdf\"}"}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	chunk, found, err := s.GetByID("c1")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected chunk to be found")
	}
	if chunk.Text != "found me" || chunk.Metadata.Filename != "a.pdf" {
		t.Errorf("unexpected chunk %+v", chunk)
	}

	_, found, err = s.GetByID("missing")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected missing id to report found=false")
	}
}

func TestDecodeMetadataUnparsable(t *testing.T) {
	meta := decodeMetadata(json.RawMessage(`"not json at all"`))
	if meta.Filename != "" {
		t.Errorf("expected zero metadata for unparsable input, got %+v", meta)
	}

	meta = decodeMetadata(json.RawMessage(`42`))
	if meta.Filename != "" {
		t.Errorf("expected zero metadata for wrong-typed input, got %+v", meta)
	}

	meta = decodeMetadata(nil)
	if meta.Filename != "" {
		t.Errorf("expected zero metadata for empty input, got %+v", meta)
	}
}

func TestFallbackDecodesPgvectorStringEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/rest/v1/rpc/") {
			fmt.Fprint(w, `[]`)
			return
		}
		// Plain selects return the embedding column in pgvector's text
		// form, a JSON string rather than an array.
		fmt.Fprint(w, `[{"id":"c7","content":"stored row","embedding":"[0.25,0.5,0.75]","metadata":"{\"filename\":\"z.pdf\"}"}]`)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	results := s.SimilaritySearch([]float32{0.5, 0.5, 0.5}, 5)
	if len(results) != 1 {
		t.Fatalf("non-empty collection must yield a fallback row, got %d", len(results))
	}
	chunk := results[0].Chunk
	if chunk.ID != "c7" || chunk.Text != "stored row" {
		t.Errorf("unexpected fallback chunk %+v", chunk)
	}
	want := []float32{0.25, 0.5, 0.75}
	if len(chunk.Embedding) != len(want) {
		t.Fatalf("embedding = %v, want %v", chunk.Embedding, want)
	}
	for i := range want {
		if chunk.Embedding[i] != want[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, chunk.Embedding[i], want[i])
		}
	}
}

func TestGetByIDDecodesPgvectorStringEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"c1","content":"found me","embedding":"[1,2]","metadata":"{\"filename\":\"a.pdf\"}"}]`)
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)

	chunk, found, err := s.GetByID("c1")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected chunk to be found")
	}
	if len(chunk.Embedding) != 2 || chunk.Embedding[0] != 1 || chunk.Embedding[1] != 2 {
		t.Errorf("embedding = %v, want [1 2]", chunk.Embedding)
	}
}

func TestDecodeEmbedding(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"array form", `[0.1,0.2]`, 2},
		{"pgvector string form", `"[0.1,0.2,0.3]"`, 3},
		{"empty", ``, 0},
		{"unparsable string", `"not a vector"`, 0},
		{"wrong type", `42`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := decodeEmbedding(json.RawMessage(tt.raw))
			if len(vec) != tt.want {
				t.Errorf("decodeEmbedding(%s) = %v, want %d values", tt.raw, vec, tt.want)
			}
		})
	}
}
