package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cortex/internal/domain"
	"cortex/internal/llm"
)

// ChatState tracks a generation request through its lifecycle:
// Idle → Retrieving → Composing → Streaming → Done | Failed.
type ChatState int

const (
	StateIdle ChatState = iota
	StateRetrieving
	StateComposing
	StateStreaming
	StateDone
	StateFailed
)

func (s ChatState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRetrieving:
		return "retrieving"
	case StateComposing:
		return "composing"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ChatOptions configures one streaming chat request.
type ChatOptions struct {
	// UseRAG enables retrieval before generation.
	UseRAG bool
	// RequireRAG fails the request when retrieval fails instead of
	// degrading to an empty context.
	RequireRAG bool
	Workspace  string
	// Limit and MinSimilarity are passed through to retrieval.
	Limit         int
	MinSimilarity float64
	HistoryBudget int
	SnippetBudget int
}

// Delta is one event on a chat stream: a state-change marker (Retrieving,
// Composing), a text increment (StateStreaming), or a terminal Done or Err
// marker. Exactly one terminal marker is delivered and the channel closes
// after it.
type Delta struct {
	RequestID string
	State     ChatState
	Content   string
	Done      bool
	Err       error
	// Sources carries the retrieved context, set on the Done marker.
	Sources []domain.RetrievalResult
}

// Orchestrator runs the retrieve → compose → stream flow for chat requests.
type Orchestrator struct {
	engine   *Engine
	streamer llm.Streamer
}

// NewOrchestrator creates an orchestrator over a retrieval engine and a
// generation provider.
func NewOrchestrator(engine *Engine, streamer llm.Streamer) *Orchestrator {
	return &Orchestrator{engine: engine, streamer: streamer}
}

// StreamChat retrieves context for userTurn, composes a bounded prompt with
// the conversation history, and streams the generation. Retrieval failure
// degrades to an empty context unless opts.RequireRAG is set. Cancelling ctx
// stops the stream and releases the generation connection; no deltas arrive
// after the channel closes.
func (o *Orchestrator) StreamChat(ctx context.Context, history []llm.Message, userTurn string, opts ChatOptions) <-chan Delta {
	requestID := uuid.New().String()
	out := make(chan Delta, 8)

	go func() {
		defer close(out)

		fail := func(err error) {
			out <- Delta{RequestID: requestID, State: StateFailed, Err: err}
		}
		progress := func(state ChatState) {
			select {
			case out <- Delta{RequestID: requestID, State: state}:
			case <-ctx.Done():
			}
		}

		// Retrieving.
		var sources []domain.RetrievalResult
		if opts.UseRAG {
			progress(StateRetrieving)
			limit := opts.Limit
			if limit <= 0 {
				limit = 5
			}
			retrieved, err := o.engine.Retrieve(ctx, userTurn, opts.Workspace, limit, opts.MinSimilarity)
			if err != nil {
				if opts.RequireRAG {
					fail(fmt.Errorf("%w: %v", domain.ErrRAGRequired, err))
					return
				}
				// Degraded mode: generation proceeds without context.
				sources = nil
			} else {
				sources = retrieved
			}
		}

		// Composing.
		progress(StateComposing)
		msgs := BuildMessages(sources, history, userTurn, opts.HistoryBudget, opts.SnippetBudget)

		// Streaming, with bounded retry on transient failures before the
		// first token.
		var tokens <-chan llm.Token
		err := withRetry(ctx, func() error {
			var err error
			tokens, err = o.streamer.Stream(ctx, msgs)
			return err
		})
		if err != nil {
			fail(err)
			return
		}

		for tok := range tokens {
			switch {
			case tok.Err != nil:
				fail(tok.Err)
				return
			case tok.Done:
				out <- Delta{RequestID: requestID, State: StateDone, Done: true, Sources: sources}
				return
			default:
				select {
				case out <- Delta{RequestID: requestID, State: StateStreaming, Content: tok.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
		// Token channel closed without a terminal marker: the consumer
		// cancelled, or the provider hung up.
		if ctx.Err() == nil {
			fail(&domain.ProviderError{Op: "generate", Err: fmt.Errorf("stream closed unexpectedly")})
		}
	}()

	return out
}
