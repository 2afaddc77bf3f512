package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cortex/internal/domain"
)

// OpenAI calls an OpenAI-compatible /embeddings endpoint (OpenAI, Azure
// OpenAI, or any server speaking the same protocol).
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	dim     int
	client  *http.Client
}

// NewOpenAI creates an embedder for an OpenAI-compatible endpoint.
func NewOpenAI(baseURL, apiKey, model string, dim int) *OpenAI {
	return &OpenAI{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		dim:     dim,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Model returns the configured model name.
func (e *OpenAI) Model() string { return e.model }

// Dimension returns the configured vector dimension.
func (e *OpenAI) Dimension() int { return e.dim }

type openaiEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed sends a batch of texts and returns their embeddings in input order.
func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := checkInputSize(texts); err != nil {
		return nil, err
	}

	body, err := json.Marshal(openaiEmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Op: "embed", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderError{
			Op:        "embed",
			Status:    resp.StatusCode,
			Retryable: retryableStatus(resp.StatusCode),
			Err:       fmt.Errorf("embeddings endpoint: %s", string(respBody)),
		}
	}

	var result openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Data))
	}

	// The API reports an index per item; order by it rather than trusting
	// response order.
	out := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
