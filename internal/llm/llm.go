package llm

import "context"

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Token is one increment of a streamed generation. Done marks the normal end
// of the stream; Err marks a failure after which no further tokens arrive.
type Token struct {
	Content string
	Done    bool
	Err     error
}

// Streamer produces generation output incrementally. The returned channel
// delivers tokens in arrival order and is closed after a terminal Done or
// Err token. Cancelling ctx stops the stream and releases the underlying
// connection.
type Streamer interface {
	Stream(ctx context.Context, messages []Message) (<-chan Token, error)
	Model() string
}
