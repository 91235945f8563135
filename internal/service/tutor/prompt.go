package tutor

import (
	"anan/internal/config"
	"anan/internal/domain/models/chat"
	"anan/internal/domain/services"
)

// buildMessages derives the ordered completion payload: exactly one system
// instruction, a bounded suffix of the stored history, then the new user
// message. History roles are coerced to user/assistant only; anything else
// stored (including system) goes upstream as user.
//
// The window keeps request size bounded on long conversations - sending
// the full history eventually trips upstream token limits.
func buildMessages(systemPrompt string, history []chat.Turn, userMessage string) []services.Message {
	window := history
	if len(window) > config.HistoryWindow {
		window = window[len(window)-config.HistoryWindow:]
	}

	messages := make([]services.Message, 0, len(window)+2)
	messages = append(messages, services.Message{
		Role:    chat.RoleSystem,
		Content: systemPrompt,
	})

	for _, turn := range window {
		role := turn.Role
		if role != chat.RoleUser && role != chat.RoleAssistant {
			role = chat.RoleUser
		}
		messages = append(messages, services.Message{
			Role:    role,
			Content: turn.Content,
		})
	}

	return append(messages, services.Message{
		Role:    chat.RoleUser,
		Content: userMessage,
	})
}
