package middleware

import (
	"log/slog"
	"net/http"

	logctx "github.com/pribylovaa/duta-client/internal/pkg/log"
	"github.com/pribylovaa/duta-client/internal/stub/respond"
)

// Recover перехватывает panic и отвечает 500 в формате конверта.
// Детали паники остаются в логе.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic",
						slog.String("path", r.URL.Path),
						slog.Any("reason", rec),
					)
					respond.Internal(w, r)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
