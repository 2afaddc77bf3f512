package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/domain"
)

func TestOllama_EmbedOrderPreserving(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// One distinct vector per input, in order.
		resp := embedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range req.Input {
			resp.Embeddings[i] = []float32{float32(i), 1}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOllama(srv.URL, "nomic-embed-text", 2)
	vecs, err := e.Embed(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{0, 1}, vecs[0])
	assert.Equal(t, []float32{2, 1}, vecs[2])
}

func TestOllama_EmptyInput(t *testing.T) {
	e := NewOllama("http://unused", "m", 2)
	vecs, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestOllama_InputTooLarge(t *testing.T) {
	e := NewOllama("http://unused", "m", 2)
	_, err := e.Embed(context.Background(), []string{strings.Repeat("x", maxInputChars+1)})
	require.ErrorIs(t, err, domain.ErrInputTooLarge)
}

func TestOllama_RetryableStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := NewOllama(srv.URL, "m", 2).Embed(context.Background(), []string{"text"})
		srv.Close()
		require.Error(t, err)
		assert.True(t, domain.IsRetryable(err), "status %d should be retryable", status)
	}
}

func TestOllama_FatalStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "m", 2).Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}

func TestOpenAI_EmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Respond out of order; the client must reorder by index.
		w.Write([]byte(`{"data":[
			{"index":1,"embedding":[1,1]},
			{"index":0,"embedding":[0,1]}
		]}`))
	}))
	defer srv.Close()

	e := NewOpenAI(srv.URL, "test-key", "text-embedding-3-small", 2)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vecs[0])
	assert.Equal(t, []float32{1, 1}, vecs[1])
}

func TestOpenAI_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAI(srv.URL, "k", "m", 1)
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}
