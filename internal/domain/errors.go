package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a requested chunk or source does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSource indicates a path is already ingested and
	// replaceExisting was not requested.
	ErrDuplicateSource = errors.New("source already exists")

	// ErrEmptyQuery indicates a query that is empty after trimming.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidChunking indicates invalid chunk size / overlap parameters.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInputTooLarge indicates a text exceeds the embedding provider's
	// input limit.
	ErrInputTooLarge = errors.New("input too large")

	// ErrExtraction indicates a document could not be converted to text.
	ErrExtraction = errors.New("extraction failed")

	// ErrUnsupportedType indicates no extractor handles the document type.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrDimensionMismatch indicates a vector does not match the store's
	// configured embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRAGRequired indicates retrieval failed for a chat that was
	// configured to require retrieved context.
	ErrRAGRequired = errors.New("retrieval required but unavailable")
)

// ProviderError wraps a failure from an embedding or generation provider.
// Retryable marks transient failures (rate limit, timeout, 5xx) that the
// caller may retry with backoff; everything else should propagate.
type ProviderError struct {
	Op        string // "embed" or "generate"
	Status    int    // HTTP status, 0 for transport errors
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s provider returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s provider: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}
