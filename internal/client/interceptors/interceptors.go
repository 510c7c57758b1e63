// interceptors предоставляет набор обёрток http.RoundTripper для исходящих
// вызовов REST API: метаданные запроса, логирование и метрики.
//
// Порядок сборки (внешний -> внутренний): metadata -> logging -> metrics.
// Metadata должна идти первой, чтобы логирование видело X-Request-Id.
package interceptors

import "net/http"

type CtxKey string

// CtxRequestID — ключ контекста, по которому вызывающий может передать
// собственный request id (иначе он будет сгенерирован).
const CtxRequestID CtxKey = "request_id"

// Middleware — обёртка над http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc — адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain применяет мидлвары к транспорту в порядке их перечисления:
// первый в списке оказывается самым внешним.
func Chain(rt http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}

	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}

	return rt
}
