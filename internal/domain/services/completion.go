package services

import (
	"context"

	"anan/internal/domain/models/chat"
)

// Message is one entry of the ordered payload sent to the completion API:
// the system instruction, a bounded window of history, then the new user
// message.
type Message struct {
	Role    chat.Role `json:"role"`
	Content string    `json:"content"`
}

// CompletionProvider performs one logical completion call against the
// upstream LLM API. Implementations own timeout, retry and error
// classification; terminal failures are reported through the domain
// sentinel errors (domain.ErrUnconfigured, ErrAuthFailure, ErrRateLimited,
// ErrUpstream, ErrNetwork, ErrMalformedResponse).
type CompletionProvider interface {
	// Complete sends the messages and returns the raw assistant text from
	// the first completion choice.
	Complete(ctx context.Context, messages []Message) (string, error)
}
