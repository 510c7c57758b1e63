// cli — команды консольного клиента duta поверх session и service.
// Каждая команда сначала восстанавливает сессию; команды кабинета
// отказываются работать без входа.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/duta-client/internal/api"
	"github.com/pribylovaa/duta-client/internal/client"
	"github.com/pribylovaa/duta-client/internal/client/interceptors"
	"github.com/pribylovaa/duta-client/internal/config"
	"github.com/pribylovaa/duta-client/internal/service"
	"github.com/pribylovaa/duta-client/internal/session"
	"github.com/pribylovaa/duta-client/internal/storage"
	"github.com/pribylovaa/duta-client/internal/storage/memory"
	"github.com/pribylovaa/duta-client/internal/storage/redis"
	"github.com/pribylovaa/duta-client/internal/storage/sqlite"
)

var (
	// ErrNotLoggedIn — команда требует входа.
	ErrNotLoggedIn = errors.New("not logged in, run `duta login` first")
	// ErrUnknownCommand — неизвестная команда.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage — неверные аргументы команды.
	ErrUsage = errors.New("usage")
)

// Форматы вывода.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// App — собранный клиент: хранилище токена, транспорт, сессия и сервис.
type App struct {
	store   storage.TokenStore
	session *session.Manager
	svc     *service.Service
	log     *slog.Logger

	Out    io.Writer
	Err    io.Writer
	Format string
	// Getenv — источник переменных окружения (пароль из DUTA_PASSWORD).
	Getenv func(string) string
}

// OpenStore открывает хранилище токена выбранного драйвера.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (storage.TokenStore, error) {
	const op = "cli.cli.OpenStore"

	switch cfg.Driver {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreRedis:
		s, err := redis.New(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	case config.StoreSQLite:
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unknown store driver %q", op, cfg.Driver)
	}
}

// New собирает App. reg == nil отключает метрики транспорта.
func New(cfg *config.Config, store storage.TokenStore, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	const op = "cli.cli.New"

	if logger == nil {
		logger = slog.Default()
	}

	var metrics *interceptors.ClientMetrics
	if reg != nil {
		metrics = interceptors.NewClientMetrics(reg)
	}

	cl, err := client.New(client.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := session.New(api.NewAuth(cl), store, cfg.Store.TokenKey, logger)
	cl.SetCredentials(m)
	cl.SetUnauthorizedHandler(m.Invalidate)

	return &App{
		store:   store,
		session: m,
		svc:     service.New(api.NewDuta(cl), cfg.Feed.RecentLimit, logger),
		log:     logger,
		Format:  FormatText,
	}, nil
}

// Close закрывает хранилище токена.
func (a *App) Close() error {
	return a.store.Close()
}

type command struct {
	summary string
	auth    bool
	run     func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":     {"log in with --login and --password (or DUTA_PASSWORD)", false, (*App).login},
	"logout":    {"log out and forget the stored token", false, (*App).logout},
	"whoami":    {"show the current user", true, (*App).whoami},
	"home":      {"dashboard summary and recent activity", true, (*App).home},
	"dashboard": {"dashboard summary", true, (*App).dashboard},
	"donations": {"donation history [--status S] [--pages N]", true, (*App).donations},
	"recent":    {"recent activity [--pages N] [--show N]", true, (*App).recent},
	"programs":  {"programs, salutations and payment methods", true, (*App).programs},
	"submit":    {"submit a donation with proof photos", true, (*App).submit},
}

// Usage печатает список команд.
func Usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: duta [global flags] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, n := range names {
		fmt.Fprintf(w, "  %-10s %s\n", n, commands[n].summary)
	}
}

// Execute восстанавливает сессию и выполняет команду args[0].
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}

	switch a.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrUsage, a.Format)
	}

	snap := a.session.Restore(ctx)
	a.log.Debug("session_restored", slog.String("state", snap.State.String()))

	if cmd.auth && snap.State != session.StateAuthenticated {
		return ErrNotLoggedIn
	}

	return cmd.run(a, ctx, args[1:])
}

func (a *App) getenv(key string) string {
	if a.Getenv == nil {
		return ""
	}

	return strings.TrimSpace(a.Getenv(key))
}
