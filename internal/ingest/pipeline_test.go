package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/domain"
	"cortex/internal/llm"
	"cortex/internal/rag"
)

type memEmbedder struct{ dim int }

func (m memEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, m.dim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}
func (m memEmbedder) Dimension() int { return m.dim }
func (m memEmbedder) Model() string  { return "mem" }

type memStore struct {
	mu       sync.Mutex
	inserted map[string]int
}

func newMemStore() *memStore { return &memStore{inserted: make(map[string]int)} }

func (m *memStore) InsertChunks(path string, meta domain.SourceMeta, pairs []domain.ChunkVector, replace bool) (domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inserted[path]; ok && !replace {
		return domain.IngestResult{}, fmt.Errorf("%w: %s", domain.ErrDuplicateSource, path)
	}
	m.inserted[path] = len(pairs)
	return domain.IngestResult{Path: path, ChunkCount: len(pairs)}, nil
}

func (m *memStore) Search([]float32, string, int, float64) ([]domain.RetrievalResult, error) {
	return nil, nil
}
func (m *memStore) DeleteSource(string) (bool, error)                 { return false, nil }
func (m *memStore) GetChunkByID(int64) (domain.RetrievalResult, error) {
	return domain.RetrievalResult{}, domain.ErrNotFound
}
func (m *memStore) ListSources(string) ([]domain.SourceFile, error) { return nil, nil }
func (m *memStore) Close() error                                    { return nil }

type noopStreamer struct{}

func (noopStreamer) Stream(ctx context.Context, messages []llm.Message) (<-chan llm.Token, error) {
	ch := make(chan llm.Token)
	close(ch)
	return ch, nil
}
func (noopStreamer) Model() string { return "noop" }

func newTestService(st domain.Store) *rag.Service {
	return rag.NewService(rag.Config{
		Store:     st,
		Embedder:  memEmbedder{dim: 4},
		Streamer:  noopStreamer{},
		ChunkSize: 3,
		Overlap:   1,
	})
}

func TestRun_IngestsDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "one.txt"), []byte("the quick brown fox jumps"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "two.md"), []byte("short note"), 0o644))

	st := newMemStore()
	stats, err := Run(context.Background(), root, newTestService(st), Config{Workers: 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 2, stats.FilesIngested)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 2, st.inserted["one.txt"])
	assert.Equal(t, 1, st.inserted["two.md"])
}

func TestRun_SkipsDuplicatesWithoutReplace(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.txt"), []byte("words in a file"), 0o644))

	st := newMemStore()
	svc := newTestService(st)

	_, err := Run(context.Background(), root, svc, Config{}, nil)
	require.NoError(t, err)

	stats, err := Run(context.Background(), root, svc, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesIngested)

	stats, err = Run(context.Background(), root, svc, Config{Replace: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIngested)
}

func TestRun_ReportsFailuresWithoutAborting(t *testing.T) {
	root := t.TempDir()
	// Invalid UTF-8 fails extraction; the valid file still ingests.
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.txt"), []byte{0xff, 0xfe}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "good.txt"), []byte("valid words"), 0o644))

	st := newMemStore()
	stats, err := Run(context.Background(), root, newTestService(st), Config{Workers: 1}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 1, stats.FilesIngested)
}
