package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"bot_gatekeeper/internal/domain/model"
)

var ErrExemptionNotFound = errors.New("exemption not found")

type ExemptionsRepo struct {
	pool *pgxpool.Pool
}

func NewExemptionsRepo(pool *pgxpool.Pool) *ExemptionsRepo {
	return &ExemptionsRepo{pool: pool}
}

// Add inserts an exemption for (chat, user). Re-adding an existing pair
// is a no-op, not an error.
func (r *ExemptionsRepo) Add(ctx context.Context, chatID, userID, addedByTGID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if chatID == 0 || userID == 0 {
		return fmt.Errorf("invalid exemption payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO exemptions (
	chat_id,
	user_id,
	added_by_tg_id,
	added_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (chat_id, user_id) DO NOTHING
`, chatID, userID, addedByTGID); err != nil {
		return fmt.Errorf("insert exemption: %w", err)
	}

	return nil
}

func (r *ExemptionsRepo) Remove(ctx context.Context, chatID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM exemptions
WHERE chat_id = $1 AND user_id = $2
`, chatID, userID)
	if err != nil {
		return fmt.Errorf("delete exemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExemptionNotFound
	}

	return nil
}

func (r *ExemptionsRepo) Exists(ctx context.Context, chatID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM exemptions
	WHERE chat_id = $1 AND user_id = $2
)
`, chatID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check exemption: %w", err)
	}

	return exists, nil
}

// List returns the chat's exemptions in insertion order.
func (r *ExemptionsRepo) List(ctx context.Context, chatID int64) ([]model.Exemption, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT chat_id, user_id, added_by_tg_id, added_at
FROM exemptions
WHERE chat_id = $1
ORDER BY added_at, user_id
`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list exemptions: %w", err)
	}
	defer rows.Close()

	result := make([]model.Exemption, 0)
	for rows.Next() {
		var entry model.Exemption
		if err := rows.Scan(&entry.ChatID, &entry.UserID, &entry.AddedByTGID, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("scan exemption row: %w", err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exemption rows: %w", err)
	}

	return result, nil
}
