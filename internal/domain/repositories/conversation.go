package repositories

import (
	"context"

	"anan/internal/domain/models/chat"
)

// ConversationRepository defines data access for per-session conversation
// history. Implementations must serialize mutations for a single
// conversation ID: two concurrent submits for the same session must never
// interleave their appends.
type ConversationRepository interface {
	// Initialize creates the conversation with a single assistant greeting
	// turn if it does not exist yet. Idempotent - an existing conversation
	// is returned untouched.
	Initialize(ctx context.Context, conversationID string) ([]chat.Turn, error)

	// History returns the turns in conversation order.
	// Returns domain.ErrNotFound if the conversation was never initialized.
	History(ctx context.Context, conversationID string) ([]chat.Turn, error)

	// Append adds turns to the end of the conversation, in argument order.
	Append(ctx context.Context, conversationID string, turns ...chat.Turn) error

	// Reset replaces the conversation with a single assistant turn carrying
	// the fixed reset message.
	Reset(ctx context.Context, conversationID string) ([]chat.Turn, error)

	// Trim keeps only the last keep turns when the conversation is longer;
	// otherwise it is a no-op. Returns the resulting turns.
	Trim(ctx context.Context, conversationID string, keep int) ([]chat.Turn, error)

	// Delete drops the conversation entirely (session expiry or explicit
	// teardown). Deleting an unknown conversation is not an error.
	Delete(ctx context.Context, conversationID string) error
}
