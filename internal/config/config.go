package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	// Type is "ollama" or "openai".
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	// BaseURL points at the provider endpoint; for openai this is the API
	// root (e.g. https://api.openai.com/v1).
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// ChatConfig configures the generation provider.
type ChatConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// ChunkerConfig configures document chunking.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// RetrievalConfig holds default search parameters.
type RetrievalConfig struct {
	Limit         int     `yaml:"limit"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// Config is the root application configuration.
type Config struct {
	DBPath    string          `yaml:"db_path"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chat      ChatConfig      `yaml:"chat"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from path. A missing file yields defaults. A .env file
// in the working directory is loaded first so api_key_env lookups work
// without exporting keys in the shell.
func Load(path string) (*Config, error) {
	// Best effort: absence of .env is normal.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./cortex.yaml first, then ~/.config/cortex/config.yaml.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("cortex.yaml"); err == nil {
		return Load("cortex.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	return Load(filepath.Join(home, ".config", "cortex", "config.yaml"))
}

// Default returns the built-in configuration: local Ollama with
// nomic-embed-text embeddings.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(".cortex", "index.db")
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "nomic-embed-text"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 768
	}
	if cfg.Embedder.BaseURL == "" {
		if cfg.Embedder.Type == "openai" {
			cfg.Embedder.BaseURL = "https://api.openai.com/v1"
		} else {
			cfg.Embedder.BaseURL = "http://localhost:11434"
		}
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "qwen3:8b"
	}
	if cfg.Chat.BaseURL == "" {
		cfg.Chat.BaseURL = "http://localhost:11434"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 200
	}
	if cfg.Retrieval.Limit == 0 {
		cfg.Retrieval.Limit = 5
	}
}
