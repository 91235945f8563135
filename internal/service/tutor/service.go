package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"anan/internal/config"
	"anan/internal/domain"
	"anan/internal/domain/models/chat"
	"anan/internal/domain/repositories"
	"anan/internal/domain/services"
)

// tutorService implements the TutorService interface: the synchronous
// per-submission cycle of append -> build prompt -> complete -> normalize
// -> append.
type tutorService struct {
	repo     repositories.ConversationRepository
	provider services.CompletionProvider
	persona  config.Persona
	logger   *slog.Logger
}

// NewTutorService creates the session controller.
func NewTutorService(
	repo repositories.ConversationRepository,
	provider services.CompletionProvider,
	persona config.Persona,
	logger *slog.Logger,
) services.TutorService {
	return &tutorService{
		repo:     repo,
		provider: provider,
		persona:  persona,
		logger:   logger,
	}
}

// SubmitMessage processes one user message. Completion failures do not
// fail the submission: each maps to a fixed assistant-role message so the
// conversation always grows by exactly two turns.
func (s *tutorService) SubmitMessage(ctx context.Context, conversationID, text string) ([]chat.Turn, error) {
	message := strings.TrimSpace(text)
	if err := validateMessage(message); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	history, err := s.repo.Initialize(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Append(ctx, conversationID, chat.UserTurn(message)); err != nil {
		return nil, err
	}

	// History is captured before the user turn was appended; the builder
	// places the new message last itself.
	payload := buildMessages(s.persona.SystemPrompt, history, message)

	var reply string
	raw, err := s.provider.Complete(ctx, payload)
	if err != nil {
		// Internal detail stays in the log; the student sees the fixed
		// category message only.
		s.logger.Warn("completion failed",
			"conversation_id", conversationID,
			"error", err,
		)
		reply = s.messageForError(err)
	} else {
		reply = Normalize(raw)
	}

	if err := s.repo.Append(ctx, conversationID, chat.AssistantTurn(reply)); err != nil {
		return nil, err
	}

	s.logger.Info("message processed",
		"conversation_id", conversationID,
		"message_length", len(message),
	)

	return s.repo.History(ctx, conversationID)
}

// History returns the conversation, seeding the greeting on first contact.
func (s *tutorService) History(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	return s.repo.Initialize(ctx, conversationID)
}

// ResetConversation replaces the conversation with the fixed reset turn.
func (s *tutorService) ResetConversation(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	turns, err := s.repo.Reset(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("conversation reset", "conversation_id", conversationID)
	return turns, nil
}

// TrimConversation keeps only the most recent keep turns. keep <= 0 uses
// the configured default window (last 3 exchanges).
func (s *tutorService) TrimConversation(ctx context.Context, conversationID string, keep int) ([]chat.Turn, error) {
	if keep <= 0 {
		keep = config.KeepTurns
	}
	return s.repo.Trim(ctx, conversationID, keep)
}

func validateMessage(message string) error {
	return validation.Validate(message,
		validation.Required,
		validation.RuneLength(1, config.MaxMessageLength),
	)
}

// messageForError picks the persona's fixed substitute for a completion
// failure kind.
func (s *tutorService) messageForError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnconfigured):
		return s.persona.Errors.Unconfigured
	case errors.Is(err, domain.ErrAuthFailure):
		return s.persona.Errors.AuthFailure
	case errors.Is(err, domain.ErrRateLimited):
		return s.persona.Errors.RateLimited
	case errors.Is(err, domain.ErrNetwork):
		return s.persona.Errors.Network
	case errors.Is(err, domain.ErrMalformedResponse):
		return s.persona.Errors.Malformed
	default:
		return s.persona.Errors.Upstream
	}
}
