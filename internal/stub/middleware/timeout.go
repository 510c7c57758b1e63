package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pribylovaa/duta-client/internal/stub/respond"
)

// Timeout ограничивает время обработки запроса. Уже заданный дедлайн
// сохраняется; d <= 0 отключает мидлвар. Если обработчик ничего не записал
// до истечения срока, клиент получает 504 в формате конверта.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := ctx.Deadline(); !ok {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}

			sw := wrap(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.status == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				respond.Error(sw, r, http.StatusGatewayTimeout, "Request timed out.")
			}
		})
	}
}
