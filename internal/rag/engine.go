package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cortex/internal/domain"
)

// maxAttempts bounds retries against a provider reporting transient errors.
const maxAttempts = 4

// Engine turns a query into ranked retrieval results: it embeds the query
// text and delegates to the store's similarity search.
type Engine struct {
	store domain.Store
	emb   domain.Embedder
}

// NewEngine creates a retrieval engine over the given store and embedder.
func NewEngine(store domain.Store, emb domain.Embedder) *Engine {
	return &Engine{store: store, emb: emb}
}

// Retrieve embeds query as a single-item batch and searches the store.
// Repeated calls with identical inputs against an unchanged store return
// identical results.
func (e *Engine) Retrieve(ctx context.Context, query, workspace string, limit int, minSimilarity float64) ([]domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	var queryVec []float32
	err := withRetry(ctx, func() error {
		vecs, err := e.emb.Embed(ctx, []string{query})
		if err != nil {
			return err
		}
		queryVec = vecs[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := e.store.Search(queryVec, workspace, limit, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// withRetry runs fn up to maxAttempts times, backing off exponentially
// between attempts. Only retryable provider errors are retried; everything
// else propagates immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			return err
		}
	}
	return err
}

// retryDelay is exponential backoff capped at 5s.
func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
