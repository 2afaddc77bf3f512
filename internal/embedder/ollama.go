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

// maxInputChars is the largest single text accepted for embedding. Inputs
// beyond this fail with ErrInputTooLarge rather than being silently
// truncated by the model.
const maxInputChars = 32000

// Ollama calls the Ollama /api/embed endpoint.
type Ollama struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

// NewOllama creates an embedder targeting the given Ollama instance. dim is
// the output dimension of the model and must match the store's schema.
func NewOllama(baseURL, model string, dim int) *Ollama {
	return &Ollama{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Model returns the configured model name.
func (e *Ollama) Model() string { return e.model }

// Dimension returns the configured vector dimension.
func (e *Ollama) Dimension() int { return e.dim }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends a batch of texts to Ollama and returns their embeddings.
// The returned slice has the same length and order as the input.
func (e *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := checkInputSize(texts); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
			Err:       fmt.Errorf("ollama embed: %s", string(respBody)),
		}
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	return result.Embeddings, nil
}

// checkInputSize rejects texts over the provider's input limit before any
// network call is made.
func checkInputSize(texts []string) error {
	for i, t := range texts {
		if len(t) > maxInputChars {
			return fmt.Errorf("%w: text %d is %d chars (limit %d)", domain.ErrInputTooLarge, i, len(t), maxInputChars)
		}
	}
	return nil
}

// retryableStatus reports whether an HTTP status indicates a transient
// failure worth retrying with backoff.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
