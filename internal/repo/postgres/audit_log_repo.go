package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bot_gatekeeper/internal/domain/enums"
	"bot_gatekeeper/internal/domain/model"
)

type AuditLogRepo struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepo(pool *pgxpool.Pool) *AuditLogRepo {
	return &AuditLogRepo{pool: pool}
}

func (r *AuditLogRepo) Save(ctx context.Context, record model.AuditRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO moderation_audit (
	chat_id,
	user_id,
	username,
	decision,
	reason,
	notified,
	action_succeeded,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, record.ChatID, record.UserID, record.Username, string(record.Decision),
		record.Reason, record.Notified, record.ActionSucceeded, createdAt); err != nil {
		return fmt.Errorf("insert moderation audit: %w", err)
	}

	return nil
}

func (r *AuditLogRepo) ListRecent(ctx context.Context, chatID int64, limit int) ([]model.AuditRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, chat_id, user_id, username, decision, reason, notified, action_succeeded, created_at
FROM moderation_audit
WHERE chat_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list moderation audit: %w", err)
	}
	defer rows.Close()

	result := make([]model.AuditRecord, 0, limit)
	for rows.Next() {
		var record model.AuditRecord
		var decision string
		if err := rows.Scan(
			&record.ID,
			&record.ChatID,
			&record.UserID,
			&record.Username,
			&decision,
			&record.Reason,
			&record.Notified,
			&record.ActionSucceeded,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan moderation audit row: %w", err)
		}
		record.Decision = enums.Decision(decision)
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation audit rows: %w", err)
	}

	return result, nil
}

func (r *AuditLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM moderation_audit
WHERE created_at < $1
`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune moderation audit: %w", err)
	}

	return tag.RowsAffected(), nil
}
