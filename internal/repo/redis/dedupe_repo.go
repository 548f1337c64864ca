package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// DedupeRepo collapses duplicate deliveries of the same event. The first
// Acquire for a key within the TTL wins, later ones lose.
type DedupeRepo struct {
	client *goredis.Client
}

func NewDedupeRepo(client *goredis.Client) *DedupeRepo {
	return &DedupeRepo{client: client}
}

func (r *DedupeRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if key == "" || ttl <= 0 {
		return false, fmt.Errorf("invalid dedupe payload")
	}

	token := uuid.NewString()
	acquired, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire dedupe key: %w", err)
	}

	return acquired, nil
}
