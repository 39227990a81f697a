package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maheshrc27/postflow-sync/pkg/utils"
)

const (
	redisKeyPrefix = "postflow-sync:cache:"
	// minRedisTTL keeps zero-stale-time keys around long enough to serve
	// as a fallback between processes.
	minRedisTTL = time.Minute
)

// RedisStore shares cache entries between console processes. Entries are
// sealed with the console secret since they hold account data.
type RedisStore struct {
	client *redis.Client
	key    []byte
	scope  string
}

func NewRedisStore(client *redis.Client, secret, scope string) *RedisStore {
	return &RedisStore{client: client, key: utils.DeriveKey(secret), scope: scope}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) redisKey(key Key) string {
	return redisKeyPrefix + s.scope + ":" + string(key)
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	sealed, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	raw, err := utils.Decrypt(sealed, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, entry Entry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	sealed, err := utils.Encrypt(raw, s.key)
	if err != nil {
		return err
	}
	if ttl < minRedisTTL {
		ttl = minRedisTTL
	}
	return s.client.Set(ctx, s.redisKey(key), sealed, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	return s.client.Del(ctx, s.redisKey(key)).Err()
}
