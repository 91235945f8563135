package tutor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"anan/internal/config"
	"anan/internal/domain"
	"anan/internal/domain/models/chat"
	"anan/internal/domain/services"
	"anan/internal/repository/memory"
	"anan/internal/service/llm/deepseek"
)

// fakeProvider is a canned CompletionProvider for controller tests.
type fakeProvider struct {
	reply string
	err   error
	calls int
	last  []services.Message
}

func (f *fakeProvider) Complete(ctx context.Context, messages []services.Message) (string, error) {
	f.calls++
	f.last = messages
	return f.reply, f.err
}

func newTestService(t *testing.T, provider services.CompletionProvider) (services.TutorService, config.Persona) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persona := config.DefaultPersona()
	repo := memory.NewConversationRepository(persona.Greeting, persona.ResetMessage, time.Hour, logger)
	return NewTutorService(repo, provider, persona, logger), persona
}

func TestSubmitMessageAppendsTwoTurns(t *testing.T) {
	provider := &fakeProvider{reply: `你覺得 \(1+1\) 會是多少呢？`}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	before, err := svc.History(ctx, "conv-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	after, err := svc.SubmitMessage(ctx, "conv-1", "1+1=?")
	if err != nil {
		t.Fatalf("SubmitMessage failed: %v", err)
	}

	if len(after) != len(before)+2 {
		t.Fatalf("expected history to grow by 2, got %d -> %d", len(before), len(after))
	}
	userTurn := after[len(after)-2]
	if userTurn.Role != chat.RoleUser || userTurn.Content != "1+1=?" {
		t.Errorf("unexpected user turn: %+v", userTurn)
	}
	assistantTurn := after[len(after)-1]
	if assistantTurn.Role != chat.RoleAssistant {
		t.Errorf("unexpected assistant role: %q", assistantTurn.Role)
	}
	// Reply is normalized before storage
	if assistantTurn.Content != "你覺得 1+1 會是多少呢？" {
		t.Errorf("assistant turn not normalized: %q", assistantTurn.Content)
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 completion call, got %d", provider.calls)
	}
}

func TestSubmitMessagePayload(t *testing.T) {
	provider := &fakeProvider{reply: "好問題！"}
	svc, persona := newTestService(t, provider)
	ctx := context.Background()

	if _, err := svc.SubmitMessage(ctx, "conv-1", "什麼是質數？"); err != nil {
		t.Fatalf("SubmitMessage failed: %v", err)
	}

	if len(provider.last) < 2 {
		t.Fatalf("payload too short: %d messages", len(provider.last))
	}
	if provider.last[0].Role != chat.RoleSystem || provider.last[0].Content != persona.SystemPrompt {
		t.Errorf("payload must start with the persona system prompt")
	}
	last := provider.last[len(provider.last)-1]
	if last.Role != chat.RoleUser || last.Content != "什麼是質數？" {
		t.Errorf("payload must end with the new user message, got %+v", last)
	}
}

func TestSubmitMessageRejectsWhitespace(t *testing.T) {
	tests := []string{"", "   ", "\n\t  "}

	for _, input := range tests {
		provider := &fakeProvider{reply: "should never be called"}
		svc, _ := newTestService(t, provider)
		ctx := context.Background()

		before, err := svc.History(ctx, "conv-1")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}

		_, err = svc.SubmitMessage(ctx, "conv-1", input)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("input %q: expected ErrValidation, got %v", input, err)
		}

		after, err := svc.History(ctx, "conv-1")
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(after) != len(before) {
			t.Errorf("input %q: store changed, %d -> %d turns", input, len(before), len(after))
		}
		if provider.calls != 0 {
			t.Errorf("input %q: provider called %d times", input, provider.calls)
		}
	}
}

func TestSubmitMessageMapsFailuresToPersonaText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want func(p config.PersonaErrors) string
	}{
		{"auth failure", domain.ErrAuthFailure, func(p config.PersonaErrors) string { return p.AuthFailure }},
		{"rate limited", domain.ErrRateLimited, func(p config.PersonaErrors) string { return p.RateLimited }},
		{"network", domain.ErrNetwork, func(p config.PersonaErrors) string { return p.Network }},
		{"malformed", domain.ErrMalformedResponse, func(p config.PersonaErrors) string { return p.Malformed }},
		{"upstream", domain.ErrUpstream, func(p config.PersonaErrors) string { return p.Upstream }},
		{"unknown errors fall back to upstream text", errors.New("boom"), func(p config.PersonaErrors) string { return p.Upstream }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, persona := newTestService(t, &fakeProvider{err: tt.err})
			ctx := context.Background()

			after, err := svc.SubmitMessage(ctx, "conv-1", "1+1=?")
			if err != nil {
				t.Fatalf("SubmitMessage must not fail on completion errors, got %v", err)
			}

			assistantTurn := after[len(after)-1]
			if want := tt.want(persona.Errors); assistantTurn.Content != want {
				t.Errorf("assistant turn = %q, want %q", assistantTurn.Content, want)
			}
		})
	}
}

// With no credential configured, a submission must complete without any
// network attempt and surface the fixed unconfigured message.
func TestSubmitMessageUnconfiguredEndToEnd(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persona := config.DefaultPersona()
	repo := memory.NewConversationRepository(persona.Greeting, persona.ResetMessage, time.Hour, logger)
	// Unroutable base URL: any dial would fail loudly rather than silently
	client := deepseek.NewClient(deepseek.Config{
		BaseURL: "http://127.0.0.1:0",
		APIKey:  "",
		Model:   "deepseek-chat",
	}, logger)
	svc := NewTutorService(repo, client, persona, logger)

	after, err := svc.SubmitMessage(context.Background(), "conv-1", "1+1=?")
	if err != nil {
		t.Fatalf("SubmitMessage failed: %v", err)
	}

	if len(after) != 3 { // greeting + user + assistant
		t.Fatalf("expected 3 turns, got %d", len(after))
	}
	if after[1].Content != "1+1=?" {
		t.Errorf("user turn = %q", after[1].Content)
	}
	if after[2].Content != persona.Errors.Unconfigured {
		t.Errorf("assistant turn = %q, want unconfigured message", after[2].Content)
	}
}

func TestResetConversation(t *testing.T) {
	svc, persona := newTestService(t, &fakeProvider{reply: "回覆"})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.SubmitMessage(ctx, "conv-1", "題目"); err != nil {
			t.Fatalf("SubmitMessage failed: %v", err)
		}
	}

	turns, err := svc.ResetConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("ResetConversation failed: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn after reset, got %d", len(turns))
	}
	if turns[0].Role != chat.RoleAssistant || turns[0].Content != persona.ResetMessage {
		t.Errorf("unexpected reset turn: %+v", turns[0])
	}
}

func TestTrimConversation(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{reply: "回覆"})
	ctx := context.Background()

	// 1 greeting + 4 exchanges = 9 turns
	for i := 0; i < 4; i++ {
		if _, err := svc.SubmitMessage(ctx, "conv-1", "題目"); err != nil {
			t.Fatalf("SubmitMessage failed: %v", err)
		}
	}

	before, _ := svc.History(ctx, "conv-1")

	turns, err := svc.TrimConversation(ctx, "conv-1", 0) // default KeepTurns
	if err != nil {
		t.Fatalf("TrimConversation failed: %v", err)
	}
	if len(turns) != config.KeepTurns {
		t.Fatalf("expected %d turns, got %d", config.KeepTurns, len(turns))
	}
	// The survivors are the most recent suffix, order preserved
	tail := before[len(before)-config.KeepTurns:]
	for i, turn := range turns {
		if turn.Content != tail[i].Content || turn.Role != tail[i].Role {
			t.Errorf("turn %d mismatch after trim: got %+v, want %+v", i, turn, tail[i])
		}
	}

	// Shorter than keep: no-op
	turns, err = svc.TrimConversation(ctx, "conv-1", 50)
	if err != nil {
		t.Fatalf("TrimConversation failed: %v", err)
	}
	if len(turns) != config.KeepTurns {
		t.Errorf("trim with larger keep should be a no-op, got %d turns", len(turns))
	}
}
