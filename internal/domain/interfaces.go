package domain

import "context"

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	// Extract returns the plain text content of data. Corrupt or
	// undecodable input fails with an error wrapping ErrExtraction.
	Extract(data []byte) (string, error)
}

// Embedder converts batches of text into fixed-dimension vectors. The i-th
// output vector corresponds to the i-th input text; an empty input yields an
// empty output. Implementations do not retry — transient failures surface as
// a retryable ProviderError and retry policy belongs to the caller.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Store persists sources and their embedded chunks and executes similarity
// queries.
type Store interface {
	// InsertChunks creates the source row and all chunk rows as one atomic
	// unit. A path that already exists fails with ErrDuplicateSource unless
	// replaceExisting is set, in which case the old chunks are removed in
	// the same transaction.
	InsertChunks(path string, meta SourceMeta, pairs []ChunkVector, replaceExisting bool) (IngestResult, error)
	// Search returns chunks with cosine similarity >= minSimilarity against
	// queryVec, descending by similarity, ties broken by most recent first,
	// at most limit results. An empty workspace matches all sources.
	Search(queryVec []float32, workspace string, limit int, minSimilarity float64) ([]RetrievalResult, error)
	// DeleteSource removes a source and all its chunks atomically. It
	// returns false, not an error, when the path is not ingested.
	DeleteSource(path string) (bool, error)
	// GetChunkByID returns a single chunk, or ErrNotFound.
	GetChunkByID(id int64) (RetrievalResult, error)
	// ListSources returns ingested sources with chunk counts, optionally
	// filtered by workspace.
	ListSources(workspace string) ([]SourceFile, error)
	Close() error
}

// SourceMeta carries the descriptive fields of a source file on insert.
type SourceMeta struct {
	Name      string
	MIME      string
	Workspace string
	SizeBytes int64
}
