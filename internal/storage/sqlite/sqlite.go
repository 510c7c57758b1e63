// sqlite предоставляет реализацию storage.TokenStore поверх локального
// файла SQLite (драйвер modernc.org/sqlite, без cgo). Это драйвер по
// умолчанию: токен переживает перезапуск CLI так же, как AsyncStorage
// переживает перезапуск мобильного приложения.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/duta-client/internal/storage"

	_ "modernc.org/sqlite"
)

// Store — key-value таблица в SQLite.
type Store struct {
	db *sql.DB
}

// New открывает (или создаёт) базу по пути path и применяет схему.
// path == ":memory:" поднимает базу в памяти (удобно в тестах).
func New(ctx context.Context, path string) (*Store, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	// Один писатель; для :memory: каждое соединение иначе получало бы свою базу.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: set wal mode: %w", op, err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.sqlite.Get"

	if key == "" {
		return "", storage.ErrEmptyKey
	}

	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "storage.sqlite.Set"

	if key == "" {
		return storage.ErrEmptyKey
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.sqlite.Delete"

	if key == "" {
		return storage.ErrEmptyKey
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает соединение с базой.
func (s *Store) Close() error { return s.db.Close() }

var _ storage.TokenStore = (*Store)(nil)
