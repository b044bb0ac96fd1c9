// Package cache provides a persistent embedding cache. Chunk texts repeat
// across re-ingestions of the same document, and embedding calls are the
// slow, metered part of the pipeline; memoizing them is transparent to the
// rest of the system because cached vectors are returned byte-for-byte as
// the wrapped embedder produced them.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"pdfchat/internal/logger"
	"pdfchat/internal/port"
)

var bucketEmbeddings = []byte("embeddings")

// BoltEmbeddingCache wraps an Embedder with a bbolt-backed memo keyed by
// model name and text hash.
type BoltEmbeddingCache struct {
	db       *bbolt.DB
	embedder port.Embedder
}

// NewBoltEmbeddingCache opens (or creates) the cache file at path and wraps
// the given embedder.
func NewBoltEmbeddingCache(path string, embedder port.Embedder) (*BoltEmbeddingCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &BoltEmbeddingCache{db: db, embedder: embedder}, nil
}

// Embed returns the cached vector for text if present, otherwise delegates
// to the wrapped embedder and stores the result. Cache write failures are
// logged, not fatal: the vector is still returned.
func (c *BoltEmbeddingCache) Embed(text string) ([]float32, error) {
	key := c.cacheKey(text)

	if vec, ok := c.get(key); ok {
		return vec, nil
	}

	vec, err := c.embedder.Embed(text)
	if err != nil {
		return nil, err
	}

	if err := c.put(key, vec); err != nil {
		logger.Warn("embedding cache write failed: %v", err)
	}

	return vec, nil
}

// Dimension returns the wrapped embedder's dimension.
func (c *BoltEmbeddingCache) Dimension() int {
	return c.embedder.Dimension()
}

// ModelName returns the wrapped embedder's model name.
func (c *BoltEmbeddingCache) ModelName() string {
	return c.embedder.ModelName()
}

// Close closes the underlying cache file.
func (c *BoltEmbeddingCache) Close() error {
	return c.db.Close()
}

// cacheKey hashes the model name together with the text so switching models
// never serves stale vectors.
func (c *BoltEmbeddingCache) cacheKey(text string) []byte {
	h := sha256.New()
	h.Write([]byte(c.embedder.ModelName()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

func (c *BoltEmbeddingCache) get(key []byte) ([]float32, bool) {
	var vec []float32
	found := false

	c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return nil
		}
		data := b.Get(key)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &vec); err != nil {
			return nil // Treat corrupted entries as a miss
		}
		found = true
		return nil
	})

	return vec, found
}

func (c *BoltEmbeddingCache) put(key []byte, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return fmt.Errorf("embeddings bucket not found")
		}
		return b.Put(key, data)
	})
}
