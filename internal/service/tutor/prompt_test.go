package tutor

import (
	"fmt"
	"testing"

	"anan/internal/config"
	"anan/internal/domain/models/chat"
)

func TestBuildMessagesShape(t *testing.T) {
	history := []chat.Turn{
		chat.AssistantTurn("嗨，我是安安老師！"),
		chat.UserTurn("1+1等於多少？"),
		chat.AssistantTurn("你覺得呢？先從數手指開始。"),
	}

	messages := buildMessages("system text", history, "是 2 嗎？")

	if len(messages) != len(history)+2 {
		t.Fatalf("expected %d messages, got %d", len(history)+2, len(messages))
	}
	if messages[0].Role != chat.RoleSystem || messages[0].Content != "system text" {
		t.Errorf("first message must be the system instruction, got %+v", messages[0])
	}
	last := messages[len(messages)-1]
	if last.Role != chat.RoleUser || last.Content != "是 2 嗎？" {
		t.Errorf("last message must be the new user message, got %+v", last)
	}
	// History order preserved in between
	for i, turn := range history {
		if messages[i+1].Content != turn.Content {
			t.Errorf("history[%d] out of order: got %q, want %q", i, messages[i+1].Content, turn.Content)
		}
	}
}

func TestBuildMessagesWindowsHistory(t *testing.T) {
	var history []chat.Turn
	for i := 0; i < config.HistoryWindow*2; i++ {
		history = append(history, chat.UserTurn(fmt.Sprintf("turn %d", i)))
	}

	messages := buildMessages("system", history, "newest")

	if len(messages) != config.HistoryWindow+2 {
		t.Fatalf("expected system + %d history + user, got %d messages", config.HistoryWindow, len(messages))
	}
	// The window is the most recent suffix
	first := messages[1]
	wantFirst := fmt.Sprintf("turn %d", config.HistoryWindow)
	if first.Content != wantFirst {
		t.Errorf("window should start at %q, got %q", wantFirst, first.Content)
	}
}

func TestBuildMessagesCoercesRoles(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleSystem, Content: "stored system turn"},
		{Role: chat.Role("tool"), Content: "unknown role"},
		{Role: chat.RoleAssistant, Content: "assistant turn"},
	}

	messages := buildMessages("system", history, "hi")

	if messages[1].Role != chat.RoleUser {
		t.Errorf("stored system role should be coerced to user, got %q", messages[1].Role)
	}
	if messages[2].Role != chat.RoleUser {
		t.Errorf("unknown role should be coerced to user, got %q", messages[2].Role)
	}
	if messages[3].Role != chat.RoleAssistant {
		t.Errorf("assistant role should pass through, got %q", messages[3].Role)
	}
}
