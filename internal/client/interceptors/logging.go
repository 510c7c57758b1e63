package interceptors

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/duta-client/internal/pkg/log"
)

// Logging — логирование исходящих запросов.
// Поведение:
//   - берёт логгер из контекста запроса (pkg/log) или base;
//   - добавляет поля request_id/method/path и прокладывает обогащённый логгер в контекст;
//   - пишет одну финальную запись: msg="http", status, dur (или err при сбое транспорта).
//
// Безопасность: не логирует тело запроса, query и заголовок Authorization.
func Logging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			l := base
			if fromCtx := log.From(r.Context()); fromCtx != slog.Default() {
				l = fromCtx
			}

			l = l.With(
				slog.String("request_id", r.Header.Get("X-Request-Id")),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			r = r.WithContext(log.Into(r.Context(), l))

			resp, err := next.RoundTrip(r)
			if err != nil {
				l.Warn("http",
					slog.String("err", err.Error()),
					slog.Duration("dur", time.Since(start)),
				)
				return nil, err
			}

			lvl := slog.LevelInfo
			if resp.StatusCode >= 500 {
				lvl = slog.LevelWarn
			}

			l.Log(r.Context(), lvl, "http",
				slog.Int("status", resp.StatusCode),
				slog.Duration("dur", time.Since(start)),
			)

			return resp, nil
		})
	}
}
