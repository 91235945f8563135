package chat

import (
	"fmt"
	"time"
)

// Role identifies the speaker of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// CoerceRole maps arbitrary stored role strings onto the closed role set.
// Unknown roles become RoleUser at the boundary so the rest of the
// pipeline never sees an open-ended role value.
func CoerceRole(s string) Role {
	switch Role(s) {
	case RoleSystem, RoleUser, RoleAssistant:
		return Role(s)
	default:
		return RoleUser
	}
}

// Turn is a single message in a conversation. Immutable once created;
// owned by the conversation store that holds it.
type Turn struct {
	Role      Role      `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewTurn creates a turn, coercing non-string content to text.
// Content is never rejected for its type.
func NewTurn(role Role, content any) Turn {
	text, ok := content.(string)
	if !ok {
		text = fmt.Sprint(content)
	}
	return Turn{
		Role:      role,
		Content:   text,
		CreatedAt: time.Now(),
	}
}

// UserTurn and AssistantTurn are the common constructors on the submit path.
func UserTurn(content string) Turn      { return NewTurn(RoleUser, content) }
func AssistantTurn(content string) Turn { return NewTurn(RoleAssistant, content) }
