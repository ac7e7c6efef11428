package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/timzinin/zinin-corp/internal/domain"
)

// ChatRepo хранит историю корпоративного чата одной JSONB-строкой.
// История маленькая (потолок 200 сообщений), построчная схема не нужна.
type ChatRepo struct {
	db *DB
}

func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Init создаёт таблицу истории, если её ещё нет.
func (r *ChatRepo) Init(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS chat_history (
            id INT PRIMARY KEY,
            messages JSONB NOT NULL DEFAULT '[]'::jsonb,
            updated_at TIMESTAMPTZ DEFAULT NOW()
        )
    `
	if _, err := r.db.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create chat_history table: %w", err)
	}
	return nil
}

func (r *ChatRepo) LoadMessages(ctx context.Context) ([]domain.Message, error) {
	query := `SELECT messages FROM chat_history WHERE id = 1`

	var raw []byte
	err := r.db.Pool.QueryRow(ctx, query).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	return messages, nil
}

func (r *ChatRepo) SaveMessages(ctx context.Context, messages []domain.Message) error {
	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}

	query := `
        INSERT INTO chat_history (id, messages, updated_at)
        VALUES (1, $1, NOW())
        ON CONFLICT (id) DO UPDATE SET messages = EXCLUDED.messages, updated_at = NOW()
    `
	if _, err := r.db.Pool.Exec(ctx, query, raw); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}
