package artifact

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "artifact:"

// RedisSpill stores each artifact as a hash with the cache TTL.
type RedisSpill struct {
	client *redis.Client
}

var _ Spill = (*RedisSpill)(nil)

func NewRedisSpill(redisURL string) (*RedisSpill, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSpill{client: client}, nil
}

func (s *RedisSpill) Close() error {
	return s.client.Close()
}

func (s *RedisSpill) Put(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	rkey := keyPrefix + key
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rkey, entryFields(e))
		pipe.Expire(ctx, rkey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}

func (s *RedisSpill) Get(ctx context.Context, key string) (Entry, bool, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to load artifact: %w", err)
	}
	if len(fields) == 0 {
		return Entry{}, false, nil
	}

	e, err := entryFromFields(fields)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func entryFields(e Entry) map[string]interface{} {
	return map[string]interface{}{
		"owner":      strconv.FormatInt(e.OwnerID, 10),
		"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"data":       e.Data,
	}
}

func entryFromFields(fields map[string]string) (Entry, error) {
	owner, err := strconv.ParseInt(fields["owner"], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid artifact owner: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid artifact timestamp: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return Entry{}, fmt.Errorf("artifact has no data")
	}

	return Entry{Data: []byte(data), OwnerID: owner, CreatedAt: created}, nil
}
