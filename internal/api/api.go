// api — типизированные вызовы REST API поверх internal/client.
//
// Пакет знает пути, параметры и формы ответов эндпоинтов, но не хранит
// состояния: токен берётся транспортом из сессии либо передаётся явно.
package api

import (
	"context"
	"fmt"

	"github.com/pribylovaa/duta-client/internal/client"
	apierrors "github.com/pribylovaa/duta-client/internal/errors"
	"github.com/pribylovaa/duta-client/internal/models"
)

// Transport — то, что нужно пакету от HTTP-клиента (*client.Client).
type Transport interface {
	Do(ctx context.Context, req client.Request, out any) error
	Upload(ctx context.Context, path string, fields []models.FormField, proofs []models.Proof, progress client.ProgressFunc, out any) error
}

// rawPage — страница в одном из двух форматов сервера:
//   - {items, meta:{current_page, total_pages}} — лента донаций с фильтром;
//   - {items, has_more} — лента последней активности.
type rawPage[T any] struct {
	Items   *[]T     `json:"items"`
	HasMore *bool    `json:"has_more"`
	Meta    *rawMeta `json:"meta"`
}

type rawMeta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// normalizePage приводит страницу любого формата к models.Page.
// Явный has_more приоритетнее meta; отсутствие обоих — ошибка контракта.
func normalizePage[T any](raw rawPage[T], requested int) (models.Page[T], error) {
	if raw.Items == nil {
		return models.Page[T]{}, malformed("page without items")
	}

	page := models.Page[T]{Number: requested, Items: *raw.Items}
	if page.Items == nil {
		page.Items = []T{}
	}

	switch {
	case raw.HasMore != nil:
		page.HasMore = *raw.HasMore
	case raw.Meta != nil:
		if raw.Meta.CurrentPage > 0 {
			page.Number = raw.Meta.CurrentPage
		}
		page.HasMore = raw.Meta.CurrentPage < raw.Meta.TotalPages
	default:
		return models.Page[T]{}, malformed("page without continuation info")
	}

	return page, nil
}

func malformed(what string) error {
	return apierrors.Server(0, "", fmt.Errorf("%w: %s", apierrors.ErrMalformedEnvelope, what))
}
