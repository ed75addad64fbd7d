package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "denylist:access:"

// DenylistStorage keeps invalidated access tokens in Redis until their
// natural expiry, so a logout takes effect before the JWT exp does.
type DenylistStorage struct {
	client *redis.Client
}

func NewDenylistStorage(client *redis.Client) *DenylistStorage {
	return &DenylistStorage{client: client}
}

func (s *DenylistStorage) InvalidateToken(ctx context.Context, token string, expiration time.Duration) error {
	if expiration <= 0 {
		// Already past exp, nothing to deny.
		return nil
	}
	return s.client.Set(ctx, denylistKeyPrefix+token, "invalidated", expiration).Err()
}

func (s *DenylistStorage) IsTokenInvalidated(ctx context.Context, token string) (bool, error) {
	result, err := s.client.Get(ctx, denylistKeyPrefix+token).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return result == "invalidated", nil
}
