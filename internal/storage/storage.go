// storage определяет контракт локального хранилища ключ-значение,
// в котором между запусками живёт access-токен.
//
// Писатель один — session.Manager; прочие компоненты хранилище не трогают.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound — ключ отсутствует (пользователь не входил или вышел).
	ErrNotFound = errors.New("not found")
	// ErrEmptyKey — пустой ключ.
	ErrEmptyKey = errors.New("empty key")
)

//go:generate mockgen -source=storage.go -destination=../../mocks/token_store_mock.go -package=mocks

// TokenStore описывает операции над персистентными значениями.
type TokenStore interface {
	// Get возвращает значение по ключу; ErrNotFound, если его нет.
	Get(ctx context.Context, key string) (string, error)
	// Set сохраняет значение, перезаписывая прежнее.
	Set(ctx context.Context, key, value string) error
	// Delete удаляет ключ. Удаление отсутствующего ключа — не ошибка.
	Delete(ctx context.Context, key string) error
	// Close освобождает ресурсы хранилища.
	Close() error
}
