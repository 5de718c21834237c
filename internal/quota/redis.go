package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBucketTTL keeps yesterday's buckets around briefly for inspection and
// lets redis expire them without an explicit reaper.
const redisBucketTTL = 48 * time.Hour

// RedisStore shares quota counters across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (s *RedisStore) Incr(ctx context.Context, key, day string) (int64, error) {
	bucket := fmt.Sprintf("quota:%s:%s", key, day)

	count, err := s.client.Incr(ctx, bucket).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment quota bucket %s: %w", bucket, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, bucket, redisBucketTTL).Err(); err != nil {
			return count, fmt.Errorf("failed to set expiry on quota bucket %s: %w", bucket, err)
		}
	}
	return count, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
