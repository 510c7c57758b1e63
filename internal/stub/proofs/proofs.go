// proofs — хранилище фото подтверждения перевода, загруженных через
// POST /duta/donations. Драйверы: memory (по умолчанию) и minio.
package proofs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("proof not found")
	ErrInvalidArgument = errors.New("invalid proof")
)

// Object — метаданные сохранённого фото.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	// URL — публичная ссылка (если хранилище её даёт).
	URL string
}

// Store — контракт хранилища фото.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (Object, error)
	Stat(ctx context.Context, key string) (Object, error)
}

// Key формирует ключ объекта "proofs/<userID>/<uuid><ext>".
func Key(userID int64, ext string) string {
	return path.Join("proofs", strconv.FormatInt(userID, 10), uuid.NewString()+ext)
}

// ExtFor возвращает расширение файла для допустимого типа содержимого.
func ExtFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// IsAllowedContentType проверяет, что тип содержимого входит в allow-list.
func IsAllowedContentType(allow []string, contentType string) bool {
	for _, a := range allow {
		if a == contentType {
			return true
		}
	}

	return false
}

type memObject struct {
	Object
	data []byte
}

// Memory — хранилище в памяти процесса.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func (m *Memory) Put(_ context.Context, key, contentType string, body io.Reader, size int64) (Object, error) {
	const op = "stub.proofs.Memory.Put"

	if key == "" {
		return Object{}, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, body)
	if err != nil {
		return Object{}, fmt.Errorf("%s: %w", op, err)
	}
	if size >= 0 && n != size {
		return Object{}, fmt.Errorf("%s: size mismatch: %w", op, ErrInvalidArgument)
	}

	obj := Object{Key: key, ContentType: contentType, Size: n}

	m.mu.Lock()
	m.objects[key] = memObject{Object: obj, data: buf.Bytes()}
	m.mu.Unlock()

	return obj, nil
}

func (m *Memory) Stat(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}

	return obj.Object, nil
}

// Len — число сохранённых объектов.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}
