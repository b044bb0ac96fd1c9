// Package store provides vector store clients: a Supabase (PostgREST)
// client backed by a pgvector table, and an in-process store used in tests.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"pdfchat/internal/domain"
	"pdfchat/internal/logger"
)

// SupabaseStore is a stateless REST client for a Supabase table with an id
// key, a content column, a pgvector embedding column and a JSON metadata
// column, plus a server-side match_documents function taking
// (query_embedding, match_count, match_threshold) and returning ranked rows
// with a similarity score.
type SupabaseStore struct {
	baseURL   string
	apiKey    string
	table     string
	threshold float64
	client    *http.Client
}

// row is the wire shape of one stored chunk. Older collections stored the
// chunk text under "text" instead of "content"; reads accept both and the
// shape is normalized here so the ambiguity never leaks past this client.
// The embedding column comes back as a JSON array from the match RPC but as
// pgvector's string form ("[0.1,0.2]") from plain selects, so it stays raw
// until decoded.
type row struct {
	ID         string          `json:"id"`
	Content    string          `json:"content,omitempty"`
	Text       string          `json:"text,omitempty"`
	Embedding  json.RawMessage `json:"embedding,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Similarity float64         `json:"similarity,omitempty"`
}

type matchRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchCount     int       `json:"match_count"`
	MatchThreshold float64   `json:"match_threshold"`
}

// NewSupabaseStore creates a store client. The project URL and service key
// are read from the environment variables named by urlEnv and keyEnv; both
// missing credentials fail here, at startup.
func NewSupabaseStore(urlEnv, keyEnv, table string, threshold float64, timeout time.Duration) (*SupabaseStore, error) {
	baseURL := os.Getenv(urlEnv)
	if baseURL == "" {
		return nil, fmt.Errorf("store URL not found in environment variable: %s", urlEnv)
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("store key not found in environment variable: %s", keyEnv)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &SupabaseStore{
		baseURL:   baseURL,
		apiKey:    apiKey,
		table:     table,
		threshold: threshold,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// InsertChunks persists one row per chunk. Rows are written independently:
// a row the backend rejects is logged and skipped, and the call errors only
// when the request pipeline itself breaks. Callers that need stronger
// guarantees must verify row counts themselves.
func (s *SupabaseStore) InsertChunks(chunks []domain.Chunk) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, s.table)

	for _, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for chunk %s: %w", chunk.ID, err)
		}
		// Metadata travels as a JSON-encoded string, matching the
		// collection's original column contents.
		metadataField, err := json.Marshal(string(metadata))
		if err != nil {
			return fmt.Errorf("failed to encode metadata for chunk %s: %w", chunk.ID, err)
		}

		embeddingField, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding for chunk %s: %w", chunk.ID, err)
		}

		body, err := json.Marshal(row{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Embedding: embeddingField,
			Metadata:  metadataField,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal chunk %s: %w", chunk.ID, err)
		}

		req, err := http.NewRequest("POST", endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		s.setHeaders(req)
		req.Header.Set("Prefer", "return=minimal")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("insert request failed: %w", err)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 300 {
			logger.Warn("failed to insert chunk %s: status %d: %s", chunk.ID, resp.StatusCode, string(respBody))
			continue
		}
		logger.Debug("inserted chunk %s", chunk.ID)
	}

	return nil
}

// SimilaritySearch asks the server-side match_documents function for the
// topK nearest rows above the configured similarity threshold. When nothing
// clears the threshold it falls back to up to topK arbitrary rows so the
// answerer always has something to reason over. A backend failure degrades
// to an empty result, never an error.
func (s *SupabaseStore) SimilaritySearch(embedding []float32, topK int) []domain.SearchResult {
	body, err := json.Marshal(matchRequest{
		QueryEmbedding: embedding,
		MatchCount:     topK,
		MatchThreshold: s.threshold,
	})
	if err != nil {
		logger.Warn("similarity search: failed to marshal request: %v", err)
		return nil
	}

	endpoint := fmt.Sprintf("%s/rest/v1/rpc/match_documents", s.baseURL)
	rows, err := s.fetchRows("POST", endpoint, body)
	if err != nil {
		logger.Warn("similarity search failed: %v", err)
		return nil
	}

	if len(rows) == 0 {
		logger.Debug("no results above threshold %g, falling back to direct table query", s.threshold)
		return s.fallbackRows(topK)
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, r := range rows {
		logger.Debug("similarity: %.4f", r.Similarity)
		results = append(results, domain.SearchResult{
			Chunk:      rowToChunk(r),
			Similarity: r.Similarity,
		})
	}
	return results
}

// fallbackRows returns up to topK rows from the collection in the backend's
// default order. Relevance is traded for recall here.
func (s *SupabaseStore) fallbackRows(topK int) []domain.SearchResult {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=*&limit=%d", s.baseURL, s.table, topK)
	rows, err := s.fetchRows("GET", endpoint, nil)
	if err != nil {
		logger.Warn("fallback query failed: %v", err)
		return nil
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, domain.SearchResult{Chunk: rowToChunk(r)})
	}
	return results
}

// GetByID returns the row with the given id. A missing id reports
// found=false without an error.
func (s *SupabaseStore) GetByID(id string) (domain.Chunk, bool, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=*&id=eq.%s&limit=1", s.baseURL, s.table, url.QueryEscape(id))

	rows, err := s.fetchRows("GET", endpoint, nil)
	if err != nil {
		return domain.Chunk{}, false, err
	}
	if len(rows) == 0 {
		return domain.Chunk{}, false, nil
	}
	return rowToChunk(rows[0]), true, nil
}

func (s *SupabaseStore) fetchRows(method, endpoint string, body []byte) ([]row, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var rows []row
	if err := json.Unmarshal(respBody, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return rows, nil
}

func (s *SupabaseStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

// rowToChunk normalizes a wire row into the canonical chunk shape.
func rowToChunk(r row) domain.Chunk {
	content := r.Content
	if content == "" {
		content = r.Text
	}
	return domain.Chunk{
		ID:        r.ID,
		Text:      content,
		Embedding: decodeEmbedding(r.Embedding),
		Metadata:  decodeMetadata(r.Metadata),
	}
}

// decodeEmbedding accepts an embedding stored either as a JSON array or as
// pgvector's text form, a JSON string like "[0.1,0.2]". An undecodable
// embedding becomes nil; the chunk text and metadata are still usable.
func decodeEmbedding(raw json.RawMessage) []float32 {
	if len(raw) == 0 {
		return nil
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err == nil {
		return vec
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
		return nil
	}
	return vec
}

// decodeMetadata accepts metadata stored either as a JSON object or as a
// JSON-encoded string. Unparsable metadata decodes to the zero value; the
// assembler substitutes its unknown-file sentinel downstream.
func decodeMetadata(raw json.RawMessage) domain.ChunkMetadata {
	var meta domain.ChunkMetadata
	if len(raw) == 0 {
		return meta
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &meta); err != nil {
			return domain.ChunkMetadata{}
		}
		return meta
	}

	if err := json.Unmarshal(raw, &meta); err != nil {
		return domain.ChunkMetadata{}
	}
	return meta
}
