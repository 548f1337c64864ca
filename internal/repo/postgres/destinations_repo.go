package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bot_gatekeeper/internal/domain/model"
)

type DestinationsRepo struct {
	pool *pgxpool.Pool
}

func NewDestinationsRepo(pool *pgxpool.Pool) *DestinationsRepo {
	return &DestinationsRepo{pool: pool}
}

// Set upserts the single audit destination for a chat. Last write wins.
func (r *DestinationsRepo) Set(ctx context.Context, chatID, logChatID, updatedByTGID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if chatID == 0 || logChatID == 0 {
		return fmt.Errorf("invalid destination payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO log_destinations (
	chat_id,
	log_chat_id,
	updated_by_tg_id,
	updated_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (chat_id) DO UPDATE SET
	log_chat_id = EXCLUDED.log_chat_id,
	updated_by_tg_id = EXCLUDED.updated_by_tg_id,
	updated_at = EXCLUDED.updated_at
`, chatID, logChatID, updatedByTGID); err != nil {
		return fmt.Errorf("upsert log destination: %w", err)
	}

	return nil
}

// Get returns the chat's destination. ok=false means none is configured.
func (r *DestinationsRepo) Get(ctx context.Context, chatID int64) (model.LogDestination, bool, error) {
	if r.pool == nil {
		return model.LogDestination{}, false, fmt.Errorf("postgres pool is nil")
	}

	var dest model.LogDestination
	err := r.pool.QueryRow(ctx, `
SELECT chat_id, log_chat_id, updated_by_tg_id, updated_at
FROM log_destinations
WHERE chat_id = $1
`, chatID).Scan(&dest.ChatID, &dest.LogChatID, &dest.UpdatedByTGID, &dest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.LogDestination{}, false, nil
		}
		return model.LogDestination{}, false, fmt.Errorf("get log destination: %w", err)
	}

	return dest, true, nil
}
