// stub — локальный сервер, реализующий REST-контракт удалённого API
// доноров-амбассадоров. Используется для разработки CLI и end-to-end тестов.
package stub

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/duta-client/internal/stub/handlers"
	"github.com/pribylovaa/duta-client/internal/stub/middleware"
	"github.com/pribylovaa/duta-client/internal/stub/respond"
)

// DefaultBasePath — префикс API, совпадающий с боевым сервером.
const DefaultBasePath = "/api/v1"

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // пустой — роуты регистрируются на корне.
	// Metrics и Gatherer включают учёт запросов и /metrics; nil — выключено.
	Metrics  *middleware.ServerMetrics
	Gatherer prometheus.Gatherer
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Metrics(opts.Metrics),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	root.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, http.StatusOK, "ok", nil)
	})
	if opts.Gatherer != nil {
		root.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusNotFound, "Not Found.")
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusMethodNotAllowed, "Method Not Allowed.")
	})

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.Tokens))

		r.Post("/logout", h.Logout)
		r.Get("/user", h.User)
		r.Get("/master-data", h.MasterData)

		r.Get("/duta/dashboard", h.Dashboard)
		r.Get("/duta/donations", h.Donations)
		r.Post("/duta/donations", h.SubmitDonation)
	})
}
