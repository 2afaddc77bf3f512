package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cortex/internal/domain"
)

// Ollama calls the Ollama /api/chat endpoint for streamed generation.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a chat client targeting the given Ollama instance and
// model. The client has no overall timeout: streamed responses can be
// long-lived and are bounded by the caller's context instead.
func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

// Model returns the configured model name.
func (c *Ollama) Model() string { return c.model }

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Stream sends a conversation to Ollama and returns a channel of response
// tokens. The response is NDJSON, one chunk per line, with done=true on the
// final line.
func (c *Ollama) Stream(ctx context.Context, messages []Message) (<-chan Token, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Op: "generate", Retryable: true, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &domain.ProviderError{
			Op:        "generate",
			Status:    resp.StatusCode,
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:       fmt.Errorf("ollama chat: %s", string(respBody)),
		}
	}

	tokens := make(chan Token, 8)
	go func() {
		defer close(tokens)
		defer resp.Body.Close()

		dec := json.NewDecoder(resp.Body)
		for {
			var chunk chatResponse
			if err := dec.Decode(&chunk); err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					// Cancellation closes the body mid-read; that is
					// not a provider failure.
					if ctx.Err() != nil {
						return
					}
					tokens <- Token{Err: &domain.ProviderError{Op: "generate", Err: fmt.Errorf("stream ended without done marker")}}
					return
				}
				tokens <- Token{Err: &domain.ProviderError{Op: "generate", Err: fmt.Errorf("decode stream chunk: %w", err)}}
				return
			}

			if chunk.Message.Content != "" {
				select {
				case tokens <- Token{Content: chunk.Message.Content}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				tokens <- Token{Done: true}
				return
			}
		}
	}()
	return tokens, nil
}

// Generate runs a non-streamed completion by draining the stream. Used where
// the full response is needed at once.
func (c *Ollama) Generate(ctx context.Context, messages []Message) (string, error) {
	tokens, err := c.Stream(ctx, messages)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	for tok := range tokens {
		if tok.Err != nil {
			return "", tok.Err
		}
		b.WriteString(tok.Content)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
