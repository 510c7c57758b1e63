// redis предоставляет реализацию storage.TokenStore поверх Redis.
// Используется, когда сессию нужно разделить между несколькими процессами
// на одной машине (киоск, cron-задачи отчётов).
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/duta-client/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store — ключи вида <prefix><key> со строковыми значениями без TTL:
// срок жизни токена контролирует сервер, а не хранилище.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "duta:".
func New(ctx context.Context, redisURL, prefix string) (*Store, error) {
	const op = "storage.redis.New"

	if prefix == "" {
		prefix = "duta:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &Store{rdb: rdb, prefix: prefix}, nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.redis.Get"

	if key == "" {
		return "", storage.ErrEmptyKey
	}

	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "storage.redis.Set"

	if key == "" {
		return storage.ErrEmptyKey
	}

	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.redis.Delete"

	if key == "" {
		return storage.ErrEmptyKey
	}

	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *Store) Close() error { return s.rdb.Close() }

var _ storage.TokenStore = (*Store)(nil)
