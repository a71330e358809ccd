package llm

import "context"

// LLM represents a generic interface for chat-completion backends.
type LLM interface {
	// Query sends one user message and returns the assistant's reply.
	Query(ctx context.Context, model, text string) (string, error)

	// QueryJSON sends one user message with JSON output forced and returns the
	// raw JSON payload.
	QueryJSON(ctx context.Context, model, text string) (string, error)

	// Reset clears the conversation history.
	Reset()
}
