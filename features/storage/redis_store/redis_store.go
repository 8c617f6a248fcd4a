package redis_store

import (
	"context"
	"errors"
	"strings"

	"entrylist/features/storage/storage_errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore namespaces every key with a prefix so several tools can share a
// redis database.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, addr string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Error().Err(err).Str("addr", addr).Msg("Failed to reach redis")
		return nil, err
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Set(ctx context.Context, name string, value []byte) error {
	return s.client.Set(ctx, s.prefix+name, value, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage_errors.ErrKeyNotFound
	}
	return v, err
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.prefix+name).Err()
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	return keys, iter.Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
