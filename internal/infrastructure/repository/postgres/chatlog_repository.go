package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/toolkitrag/grounded/internal/core/domain"
)

// ChatLogRepository appends immutable question/answer records. There is no
// update path by design.
type ChatLogRepository struct {
	db *sql.DB
}

func NewChatLogRepository(db *sql.DB) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

func (r *ChatLogRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS chat_logs (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	citations JSONB NOT NULL DEFAULT '[]'::jsonb,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	refused BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_logs_user_id ON chat_logs(user_id);
CREATE INDEX IF NOT EXISTS idx_chat_logs_created_at ON chat_logs(created_at DESC);
`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute chat log schema ddl: %w", err)
	}
	return nil
}

func (r *ChatLogRepository) Append(ctx context.Context, entry *domain.ChatLog) error {
	citations := entry.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO chat_logs (id, user_id, question, answer, citations, confidence, refused, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		entry.ID, entry.UserID, entry.Question, entry.Answer, citationsJSON,
		entry.Confidence, entry.Refused, entry.CreatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "insert chat log", err)
	}
	return nil
}
