// memory — хранилище токена в памяти процесса: для тестов и драйвера
// store=memory (одноразовые запуски без сохранения сессии).
package memory

import (
	"context"
	"sync"

	"github.com/pribylovaa/duta-client/internal/storage"
)

// Store — потокобезопасная map под мьютексом.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if key == "" {
		return "", storage.ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}

	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		return storage.ErrEmptyKey
	}

	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		return storage.ErrEmptyKey
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	return nil
}

func (s *Store) Close() error { return nil }

var _ storage.TokenStore = (*Store)(nil)
