package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trustline/internal/notification"
)

const keyPrefix = "trustline:notifications:"

// RedisStore keeps each inbox in a capped Redis list, newest at the head.
type RedisStore struct {
	client redis.UniversalClient
	limit  int
}

func NewRedis(client redis.UniversalClient, limit int) *RedisStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisStore{client: client, limit: limit}
}

func inboxKey(recipient string) string {
	return keyPrefix + recipient
}

func (s *RedisStore) Push(ctx context.Context, n notification.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	key := inboxKey(n.Recipient)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, int64(s.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, recipient string, limit int) ([]notification.Notification, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	values, err := s.client.LRange(ctx, inboxKey(recipient), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]notification.Notification, 0, len(values))
	for _, v := range values {
		var n notification.Notification
		if err := json.Unmarshal([]byte(v), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}
