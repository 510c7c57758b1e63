package interceptors

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics — счётчики и гистограммы исходящих запросов.
// Лейбл path — это путь эндпоинта без query (набор путей фиксирован контрактом API).
type ClientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewClientMetrics регистрирует метрики в reg. reg == nil — метрики не регистрируются,
// но продолжают считаться (удобно в тестах).
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duta",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outgoing API requests by method, path and status code.",
		}, []string{"method", "path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "duta",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outgoing API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}

	return m
}

// Metrics — учёт запросов. Сбой транспорта учитывается с code="error".
func Metrics(m *ClientMetrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if m == nil {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			code := "error"
			if err == nil {
				code = strconv.Itoa(resp.StatusCode)
			}

			m.requests.WithLabelValues(r.Method, r.URL.Path, code).Inc()
			m.duration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())

			return resp, err
		})
	}
}
