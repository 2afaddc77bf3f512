package domain

import "time"

// SourceFile represents one ingested document.
type SourceFile struct {
	ID         int64
	Path       string
	Name       string
	MIME       string
	Workspace  string
	SizeBytes  int64
	CreatedAt  time.Time
	ChunkCount int
}

// ChunkVector pairs a text snippet with its embedding, ready for storage.
type ChunkVector struct {
	Text   string
	Vector []float32
}

// RetrievalResult is a matching chunk with its similarity score. It is
// derived per query and never persisted.
type RetrievalResult struct {
	ChunkID    int64
	SourcePath string
	Snippet    string
	Similarity float64
	CreatedAt  time.Time
}

// IngestResult reports the outcome of ingesting one document.
type IngestResult struct {
	SourceID   int64
	Path       string
	ChunkCount int
	Replaced   bool
}
