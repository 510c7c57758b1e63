// minio — реализация proofs.Store на базе MinIO/S3.
// Конструктор нормализует endpoint, выбирает Secure по схеме и проверяет
// наличие бакета (fail-fast).
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/duta-client/internal/config"
	"github.com/pribylovaa/duta-client/internal/stub/proofs"
)

// ProofsStorage — адаптер MinIO для фото подтверждения.
type ProofsStorage struct {
	cfg    config.S3Config
	client *mclient.Client
}

// New создаёт клиент MinIO и проверяет доступность бакета.
func New(ctx context.Context, cfg config.S3Config) (*ProofsStorage, error) {
	const op = "stub.proofs.minio.New"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.RootUser, cfg.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	return &ProofsStorage{cfg: cfg, client: client}, nil
}

// Put загружает объект. size < 0 — размер неизвестен (multipart-стриминг minio-go).
func (s *ProofsStorage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (proofs.Object, error) {
	const op = "stub.proofs.minio.Put"

	if key == "" {
		return proofs.Object{}, fmt.Errorf("%s: %w", op, proofs.ErrInvalidArgument)
	}

	info, err := s.client.PutObject(ctx, s.cfg.Bucket, key, body, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return proofs.Object{}, fmt.Errorf("%s: %w", op, err)
	}

	return proofs.Object{
		Key:         key,
		ContentType: contentType,
		Size:        info.Size,
		URL:         s.publicURL(key),
	}, nil
}

// Stat возвращает метаданные объекта или proofs.ErrNotFound.
func (s *ProofsStorage) Stat(ctx context.Context, key string) (proofs.Object, error) {
	const op = "stub.proofs.minio.Stat"

	info, err := s.client.StatObject(ctx, s.cfg.Bucket, key, mclient.StatObjectOptions{})
	if err != nil {
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return proofs.Object{}, proofs.ErrNotFound
		}

		return proofs.Object{}, fmt.Errorf("%s: %w", op, err)
	}

	return proofs.Object{
		Key:         key,
		ContentType: info.ContentType,
		Size:        info.Size,
		URL:         s.publicURL(key),
	}, nil
}

func (s *ProofsStorage) publicURL(key string) string {
	if s.cfg.PublicBaseURL == "" {
		return ""
	}

	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
}

var _ proofs.Store = (*ProofsStorage)(nil)
