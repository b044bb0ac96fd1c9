package cli

import (
	"fmt"
	"time"

	"pdfchat/config"
	"pdfchat/internal/adapter/cache"
	"pdfchat/internal/adapter/embedding"
	"pdfchat/internal/adapter/llm"
	"pdfchat/internal/adapter/store"
	"pdfchat/internal/logger"
	"pdfchat/internal/port"
)

// closerFunc releases resources held by a component set. Safe to call when
// nothing needs closing.
type closerFunc func()

// buildEmbedder creates the embedding client, wrapped in the bbolt cache
// when a cache path is configured.
func buildEmbedder(cfg *config.Config) (port.Embedder, closerFunc, error) {
	emb, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.APIKeyEnv,
		cfg.Embedding.Model,
		cfg.Embedding.BaseURL,
		time.Duration(cfg.Embedding.TimeoutSecs)*time.Second,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if cfg.Embedding.CachePath == "" {
		return emb, func() {}, nil
	}

	cached, err := cache.NewBoltEmbeddingCache(cfg.Embedding.CachePath, emb)
	if err != nil {
		// Cache is an optimization; fall back to the bare embedder.
		logger.Warn("embedding cache unavailable at %s: %v", cfg.Embedding.CachePath, err)
		return emb, func() {}, nil
	}
	return cached, func() { cached.Close() }, nil
}

// buildStore creates the Supabase vector store client.
func buildStore(cfg *config.Config) (port.VectorStore, error) {
	st, err := store.NewSupabaseStore(
		cfg.Store.URLEnv,
		cfg.Store.KeyEnv,
		cfg.Store.Collection,
		cfg.Retrieve.MatchThreshold,
		time.Duration(cfg.Store.TimeoutSecs)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	return st, nil
}

// buildLLM creates the answer-generation client.
func buildLLM(cfg *config.Config) (port.LLM, error) {
	chat, err := llm.NewOpenAIChat(
		cfg.Chat.APIKeyEnv,
		cfg.Chat.Model,
		cfg.Chat.BaseURL,
		cfg.Chat.Temperature,
		cfg.Chat.MaxTokens,
		time.Duration(cfg.Chat.TimeoutSecs)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}
	return chat, nil
}
