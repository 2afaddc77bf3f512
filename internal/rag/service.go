package rag

import (
	"context"
	"fmt"
	"path/filepath"

	"cortex/internal/chunker"
	"cortex/internal/domain"
	"cortex/internal/extract"
	"cortex/internal/llm"
)

// embedBatchSize is the number of chunks sent per embedding request.
const embedBatchSize = 32

// Service is the exposed surface of the RAG core: document ingestion,
// similarity search, source management, and streaming chat.
type Service struct {
	store        domain.Store
	emb          domain.Embedder
	registry     *extract.Registry
	engine       *Engine
	orchestrator *Orchestrator

	chunkSize int
	overlap   int
}

// Config configures a Service.
type Config struct {
	Store     domain.Store
	Embedder  domain.Embedder
	Streamer  llm.Streamer
	Registry  *extract.Registry
	ChunkSize int
	Overlap   int
}

// NewService wires a Service from its collaborators.
func NewService(cfg Config) *Service {
	if cfg.Registry == nil {
		cfg.Registry = extract.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = chunker.DefaultOverlap
	}
	engine := NewEngine(cfg.Store, cfg.Embedder)
	return &Service{
		store:        cfg.Store,
		emb:          cfg.Embedder,
		registry:     cfg.Registry,
		engine:       engine,
		orchestrator: NewOrchestrator(engine, cfg.Streamer),
		chunkSize:    cfg.ChunkSize,
		overlap:      cfg.Overlap,
	}
}

// Ingest extracts text from raw, chunks it, embeds the chunks, and stores
// everything for sourcePath as one atomic unit. A path that is already
// ingested fails with ErrDuplicateSource unless replaceExisting is set.
func (s *Service) Ingest(ctx context.Context, sourcePath string, raw []byte, mimeHint, workspace string, replaceExisting bool) (domain.IngestResult, error) {
	var res domain.IngestResult

	ext, err := s.registry.Lookup(mimeHint, sourcePath)
	if err != nil {
		return res, err
	}
	text, err := ext.Extract(raw)
	if err != nil {
		return res, fmt.Errorf("extract %s: %w", sourcePath, err)
	}

	texts, err := chunker.Chunk(text, s.chunkSize, s.overlap)
	if err != nil {
		return res, err
	}

	pairs := make([]domain.ChunkVector, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		var vecs [][]float32
		err := withRetry(ctx, func() error {
			var err error
			vecs, err = s.emb.Embed(ctx, batch)
			return err
		})
		if err != nil {
			return res, fmt.Errorf("embed chunks for %s: %w", sourcePath, err)
		}
		for j, v := range vecs {
			pairs = append(pairs, domain.ChunkVector{Text: batch[j], Vector: v})
		}
	}

	meta := domain.SourceMeta{
		Name:      filepath.Base(sourcePath),
		MIME:      mimeHint,
		Workspace: workspace,
		SizeBytes: int64(len(raw)),
	}
	return s.store.InsertChunks(sourcePath, meta, pairs, replaceExisting)
}

// Search embeds queryText and returns ranked retrieval results.
func (s *Service) Search(ctx context.Context, queryText, workspace string, limit int, minSimilarity float64) ([]domain.RetrievalResult, error) {
	return s.engine.Retrieve(ctx, queryText, workspace, limit, minSimilarity)
}

// DeleteSource removes a source and all its chunks. It returns false when
// the path was not ingested.
func (s *Service) DeleteSource(path string) (bool, error) {
	return s.store.DeleteSource(path)
}

// GetChunk returns a single chunk by ID, or ErrNotFound.
func (s *Service) GetChunk(id int64) (domain.RetrievalResult, error) {
	return s.store.GetChunkByID(id)
}

// ListSources returns ingested sources, optionally scoped to a workspace.
func (s *Service) ListSources(workspace string) ([]domain.SourceFile, error) {
	return s.store.ListSources(workspace)
}

// Extensions returns the file extensions the configured extractors handle.
func (s *Service) Extensions() map[string]bool {
	return s.registry.Extensions()
}

// StreamChat streams a generation for userTurn with retrieved context.
func (s *Service) StreamChat(ctx context.Context, history []llm.Message, userTurn string, opts ChatOptions) <-chan Delta {
	return s.orchestrator.StreamChat(ctx, history, userTurn, opts)
}
