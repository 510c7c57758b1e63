package interceptors

import (
	"net/http"

	"github.com/google/uuid"
)

// WithMetadata — добавляет в исходящий запрос заголовки:
//   - X-Request-Id (из контекста по CtxRequestID или новый UUID),
//   - User-Agent (если передан параметром),
//   - Accept: application/json (если не задан).
//
// Исходный запрос не модифицируется: заголовки ставятся на клон.
func WithMetadata(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())

			if r.Header.Get("X-Request-Id") == "" {
				rid, _ := r.Context().Value(CtxRequestID).(string)
				if rid == "" {
					rid = uuid.NewString()
				}
				r.Header.Set("X-Request-Id", rid)
			}

			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			if r.Header.Get("Accept") == "" {
				r.Header.Set("Accept", "application/json")
			}

			return next.RoundTrip(r)
		})
	}
}
