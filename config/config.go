package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the PDF chat pipeline.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Store     StoreConfig     `yaml:"store"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
}

// EmbeddingConfig configures the embedding model client.
type EmbeddingConfig struct {
	Model       string `yaml:"model"`       // e.g., "text-embedding-3-small"
	BaseURL     string `yaml:"base_url"`    // OpenAI-compatible endpoint
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	CachePath   string `yaml:"cache_path"` // Embedding cache file (empty = disabled)
}

// ChatConfig configures the answer-generation model client.
type ChatConfig struct {
	Model            string  `yaml:"model"` // e.g., "gpt-4o-mini"
	BaseURL          string  `yaml:"base_url"`
	APIKeyEnv        string  `yaml:"api_key_env"`
	MaxContextLength int     `yaml:"max_context_length"` // Characters of context fed to the model
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	TimeoutSecs      int     `yaml:"timeout_secs"`
}

// ChunkingConfig configures the fixed-window chunker.
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // Window size in characters
	Overlap int `yaml:"overlap"` // Overlap between adjacent windows
}

// StoreConfig configures the vector store client. The URL and service key
// are credentials and come from the environment, never from the YAML file.
type StoreConfig struct {
	URLEnv      string `yaml:"url_env"`
	KeyEnv      string `yaml:"key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieveConfig configures similarity search.
type RetrieveConfig struct {
	TopK           int     `yaml:"top_k"`
	MatchThreshold float64 `yaml:"match_threshold"` // Minimum similarity; permissive by default to favor recall
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Model:       "text-embedding-3-small",
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   1536,
			TimeoutSecs: 60,
		},
		Chat: ChatConfig{
			Model:            "gpt-4o-mini",
			BaseURL:          "https://api.openai.com/v1",
			APIKeyEnv:        "OPENAI_API_KEY",
			MaxContextLength: 4000,
			MaxTokens:        1000,
			Temperature:      0.3,
			TimeoutSecs:      60,
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Store: StoreConfig{
			URLEnv:      "SUPABASE_URL",
			KeyEnv:      "SUPABASE_KEY",
			Collection:  "pdf_documents",
			TimeoutSecs: 30,
		},
		Retrieve: RetrieveConfig{
			TopK:           5,
			MatchThreshold: 0.1,
		},
	}
}

// Load loads configuration from a YAML file, applying defaults for any
// field the file does not set.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for pdfchat.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "pdfchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return DefaultConfig(), nil
}

// Validate rejects parameter combinations that would break the pipeline at
// runtime. It runs at startup so a bad overlap fails fast instead of hanging
// the chunker mid-document.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, size), got size=%d overlap=%d",
			c.Chunking.Size, c.Chunking.Overlap)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.MatchThreshold < 0 || c.Retrieve.MatchThreshold > 1 {
		return fmt.Errorf("retrieve.match_threshold must be in [0, 1], got %g", c.Retrieve.MatchThreshold)
	}
	if c.Chat.MaxContextLength <= 0 {
		return fmt.Errorf("chat.max_context_length must be positive, got %d", c.Chat.MaxContextLength)
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.max_tokens must be positive, got %d", c.Chat.MaxTokens)
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("store.collection must not be empty")
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
