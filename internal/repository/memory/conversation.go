package memory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"anan/internal/domain"
	"anan/internal/domain/models/chat"
	"anan/internal/domain/repositories"
)

// conversation is one session's history plus its own lock. All
// read-modify-write cycles on the turn slice happen under mu, so two
// concurrent submits for the same session can never tear an append.
// lastAccess is atomic (unix nanoseconds) because it is read during the
// eviction check under the repository map lock while writers touch it
// under the per-conversation lock.
type conversation struct {
	mu         sync.Mutex
	turns      []chat.Turn
	lastAccess atomic.Int64
}

func (c *conversation) touch() {
	c.lastAccess.Store(time.Now().UnixNano())
}

func (c *conversation) idleSince() time.Duration {
	return time.Since(time.Unix(0, c.lastAccess.Load()))
}

// ConversationRepository keeps conversations in process memory, keyed by
// conversation ID. Conversations idle longer than ttl are dropped lazily on
// next access, mirroring server-side session expiry.
type ConversationRepository struct {
	mu            sync.Mutex
	conversations map[string]*conversation

	greeting     string
	resetMessage string
	ttl          time.Duration
	logger       *slog.Logger
}

// NewConversationRepository creates an in-memory store seeded with the
// persona's greeting and reset texts. ttl <= 0 disables expiry.
func NewConversationRepository(greeting, resetMessage string, ttl time.Duration, logger *slog.Logger) repositories.ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[string]*conversation),
		greeting:      greeting,
		resetMessage:  resetMessage,
		ttl:           ttl,
		logger:        logger,
	}
}

// get returns the live conversation for id, evicting it first if expired.
func (r *ConversationRepository) get(id string) (*conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && c.idleSince() > r.ttl {
		delete(r.conversations, id)
		r.logger.Debug("conversation expired", "conversation_id", id)
		return nil, false
	}
	return c, true
}

func (r *ConversationRepository) Initialize(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	if c, ok := r.get(conversationID); ok {
		return c.snapshot(), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check under the map lock - another request may have won the race
	if c, ok := r.conversations[conversationID]; ok {
		return c.snapshot(), nil
	}

	c := &conversation{turns: []chat.Turn{chat.AssistantTurn(r.greeting)}}
	c.touch()
	r.conversations[conversationID] = c
	r.logger.Debug("conversation created", "conversation_id", conversationID)
	return c.snapshot(), nil
}

func (r *ConversationRepository) History(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	c, ok := r.get(conversationID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.snapshot(), nil
}

func (r *ConversationRepository) Append(ctx context.Context, conversationID string, turns ...chat.Turn) error {
	c, ok := r.get(conversationID)
	if !ok {
		return domain.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
	c.touch()
	return nil
}

func (r *ConversationRepository) Reset(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	c, ok := r.get(conversationID)
	if !ok {
		// Resetting an unknown session still yields a usable store
		r.mu.Lock()
		defer r.mu.Unlock()
		c = &conversation{turns: []chat.Turn{chat.AssistantTurn(r.resetMessage)}}
		c.touch()
		r.conversations[conversationID] = c
		return c.snapshotLocked(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = []chat.Turn{chat.AssistantTurn(r.resetMessage)}
	return c.snapshotLocked(), nil
}

func (r *ConversationRepository) Trim(ctx context.Context, conversationID string, keep int) ([]chat.Turn, error) {
	c, ok := r.get(conversationID)
	if !ok {
		return nil, domain.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if keep >= 0 && len(c.turns) > keep {
		c.turns = append([]chat.Turn(nil), c.turns[len(c.turns)-keep:]...)
	}
	return c.snapshotLocked(), nil
}

func (r *ConversationRepository) Delete(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, conversationID)
	return nil
}

// snapshot copies the turns so callers never alias internal state.
func (c *conversation) snapshot() []chat.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *conversation) snapshotLocked() []chat.Turn {
	c.touch()
	return append([]chat.Turn(nil), c.turns...)
}
