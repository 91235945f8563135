package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"anan/internal/domain"
	"anan/internal/domain/models/chat"
	"anan/internal/domain/repositories"
)

// ConversationRepository persists conversation turns in PostgreSQL.
// Schema (created externally, per environment prefix):
//
//	CREATE TABLE {prefix}conversation_turns (
//	    id              BIGSERIAL PRIMARY KEY,
//	    conversation_id TEXT        NOT NULL,
//	    role            TEXT        NOT NULL,
//	    content         TEXT        NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX ON {prefix}conversation_turns (conversation_id, id);
//
// Insertion order is conversation order (id is monotonic). Every mutating
// operation takes a per-conversation advisory lock inside its transaction,
// so concurrent submits for one session cannot interleave their appends.
type ConversationRepository struct {
	pool         *pgxpool.Pool
	tables       *TableNames
	greeting     string
	resetMessage string
	logger       *slog.Logger
}

// NewConversationRepository creates a PostgreSQL-backed conversation store
// seeded with the persona's greeting and reset texts.
func NewConversationRepository(config *RepositoryConfig, greeting, resetMessage string) repositories.ConversationRepository {
	return &ConversationRepository{
		pool:         config.Pool,
		tables:       config.Tables,
		greeting:     greeting,
		resetMessage: resetMessage,
		logger:       config.Logger,
	}
}

func (r *ConversationRepository) Initialize(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	var turns []chat.Turn
	err := r.withConversationLock(ctx, conversationID, func(tx pgx.Tx) error {
		existing, err := r.selectTurns(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			turns = existing
			return nil
		}

		seed := chat.AssistantTurn(r.greeting)
		if err := r.insertTurns(ctx, tx, conversationID, seed); err != nil {
			return err
		}
		turns = []chat.Turn{seed}
		r.logger.Debug("conversation created", "conversation_id", conversationID)
		return nil
	})
	return turns, err
}

func (r *ConversationRepository) History(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	turns, err := r.selectTurns(ctx, r.pool, conversationID)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, domain.ErrNotFound
	}
	return turns, nil
}

func (r *ConversationRepository) Append(ctx context.Context, conversationID string, turns ...chat.Turn) error {
	return r.withConversationLock(ctx, conversationID, func(tx pgx.Tx) error {
		return r.insertTurns(ctx, tx, conversationID, turns...)
	})
}

func (r *ConversationRepository) Reset(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	var turns []chat.Turn
	err := r.withConversationLock(ctx, conversationID, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`DELETE FROM %s WHERE conversation_id = $1`, r.tables.Turns)
		if _, err := tx.Exec(ctx, query, conversationID); err != nil {
			return fmt.Errorf("delete turns: %w", err)
		}

		seed := chat.AssistantTurn(r.resetMessage)
		if err := r.insertTurns(ctx, tx, conversationID, seed); err != nil {
			return err
		}
		turns = []chat.Turn{seed}
		return nil
	})
	return turns, err
}

func (r *ConversationRepository) Trim(ctx context.Context, conversationID string, keep int) ([]chat.Turn, error) {
	var turns []chat.Turn
	err := r.withConversationLock(ctx, conversationID, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			DELETE FROM %s
			WHERE conversation_id = $1
			  AND id NOT IN (
			      SELECT id FROM %s
			      WHERE conversation_id = $1
			      ORDER BY id DESC
			      LIMIT $2
			  )
		`, r.tables.Turns, r.tables.Turns)
		if _, err := tx.Exec(ctx, query, conversationID, keep); err != nil {
			return fmt.Errorf("trim turns: %w", err)
		}

		remaining, err := r.selectTurns(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return domain.ErrNotFound
		}
		turns = remaining
		return nil
	})
	return turns, err
}

func (r *ConversationRepository) Delete(ctx context.Context, conversationID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE conversation_id = $1`, r.tables.Turns)
	if _, err := r.pool.Exec(ctx, query, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// withConversationLock runs fn in a transaction holding the advisory lock
// for this conversation. The lock is released on commit/rollback.
func (r *ConversationRepository) withConversationLock(ctx context.Context, conversationID string, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, conversationID); err != nil {
		return fmt.Errorf("acquire conversation lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *ConversationRepository) selectTurns(ctx context.Context, q querier, conversationID string) ([]chat.Turn, error) {
	query := fmt.Sprintf(`
		SELECT role, content, created_at
		FROM %s
		WHERE conversation_id = $1
		ORDER BY id
	`, r.tables.Turns)

	rows, err := q.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("select turns: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var role string
		var turn chat.Turn
		if err := rows.Scan(&role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		// Closed role set is enforced on the way out of storage
		turn.Role = chat.CoerceRole(role)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (r *ConversationRepository) insertTurns(ctx context.Context, tx pgx.Tx, conversationID string, turns ...chat.Turn) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.tables.Turns)

	for _, turn := range turns {
		if _, err := tx.Exec(ctx, query, conversationID, string(turn.Role), turn.Content, turn.CreatedAt); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}
	return nil
}
