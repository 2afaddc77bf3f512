package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Embedder.Type)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
	assert.Equal(t, 768, cfg.Embedder.Dimension)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, 5, cfg.Retrieval.Limit)
}

func TestLoadFillsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
embedder:
  type: openai
  model: text-embedding-3-small
  dimension: 1536
chat:
  model: llama3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, 1536, cfg.Embedder.Dimension)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.BaseURL)
	assert.Equal(t, "llama3", cfg.Chat.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Chat.BaseURL)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
