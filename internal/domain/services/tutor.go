package services

import (
	"context"

	"anan/internal/domain/models/chat"
)

// TutorService is the session controller: it owns the per-submission cycle
// of append user turn -> build prompt -> complete -> normalize -> append
// assistant turn. Completion failures never surface to the caller; they
// become a fixed assistant-role message so the conversation always
// progresses.
type TutorService interface {
	// SubmitMessage processes one user message and returns the updated
	// history. Empty or whitespace-only text returns domain.ErrValidation
	// and leaves the conversation unchanged.
	SubmitMessage(ctx context.Context, conversationID, text string) ([]chat.Turn, error)

	// History returns the conversation, initializing it with the greeting
	// turn on first contact.
	History(ctx context.Context, conversationID string) ([]chat.Turn, error)

	// ResetConversation replaces the conversation with the fixed reset
	// message and returns the fresh history.
	ResetConversation(ctx context.Context, conversationID string) ([]chat.Turn, error)

	// TrimConversation keeps only the most recent keep turns.
	// keep <= 0 uses the configured default window.
	TrimConversation(ctx context.Context, conversationID string, keep int) ([]chat.Turn, error)
}
