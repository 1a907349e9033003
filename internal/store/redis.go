package store

import (
	"context"
	"time"

	"coverletter/internal/config"
	"coverletter/internal/errors"
	"coverletter/internal/types"

	"github.com/redis/go-redis/v9"
)

// redisClient is the part of the go-redis client the store uses
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisStore keeps the list as one string value at <prefix>savedCoverLetters
type RedisStore struct {
	client redisClient
	key    string
}

// NewRedisStore connects to Redis and verifies the connection with PING
func NewRedisStore(ctx context.Context, cfg config.RedisStorageConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to connect to redis", err).
			WithContext("addr", cfg.Addr)
	}

	return newRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

func newRedisStoreWithClient(client redisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + Key}
}

// Key returns the Redis key holding the list
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads the list; a missing key is an empty list
func (s *RedisStore) Load(ctx context.Context) ([]types.SavedLetter, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []types.SavedLetter{}, nil
		}
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to read saved letters from redis", err).
			WithContext("key", s.key)
	}
	return decode(data)
}

// Save replaces the stored list. The value has no expiry.
func (s *RedisStore) Save(ctx context.Context, letters []types.SavedLetter) error {
	data, err := encode(letters)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to write saved letters to redis", err).
			WithContext("key", s.key)
	}
	return nil
}

// Close closes the Redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
