package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/pribylovaa/duta-client/internal/cli"
	"github.com/pribylovaa/duta-client/internal/config"
	apierrors "github.com/pribylovaa/duta-client/internal/errors"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		if errors.Is(err, cli.ErrUsage) || errors.Is(err, cli.ErrUnknownCommand) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	var configPath, output string
	var verbose bool

	fs := pflag.NewFlagSet("duta", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVar(&configPath, "config", "", "path to config file")
	fs.StringVarP(&output, "output", "o", cli.FormatText, "output format: text, json, yaml")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
	fs.Usage = func() {
		cli.Usage(os.Stderr)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Global flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", cli.ErrUsage, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := setupLogger(cfg.Env, verbose)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := cli.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled() {
		reg = prometheus.NewRegistry()
		stop, err := serveMetrics(cfg.Metrics.Addr(), reg, log)
		if err != nil {
			_ = store.Close()
			return err
		}
		defer stop()
	}

	app, err := cli.New(cfg, store, log, registerer(reg))
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			log.Warn("store_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	app.Out, app.Err, app.Format = os.Stdout, os.Stderr, output
	app.Getenv = os.Getenv

	return app.Execute(ctx, fs.Args())
}

// registerer избегает typed-nil в интерфейсе.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}

	return reg
}

// serveMetrics поднимает /metrics на время работы команды.
func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()
	log.Debug("metrics_listen_start", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// describe дополняет ошибку понятным пользователю сообщением.
func describe(err error) string {
	if msg := apierrors.UserMessage(err); msg != "" && apierrors.KindOf(err) != apierrors.KindUnknown {
		var ae *apierrors.Error
		if errors.As(err, &ae) {
			if fe := ae.FieldErrors(); len(fe) > 0 {
				return fmt.Sprintf("%s %v", msg, fe)
			}
		}
		return msg
	}

	return err.Error()
}

// setupLogger пишет в stderr, чтобы не смешивать логи с выводом команд.
// Без --verbose в local/dev выводятся только предупреждения.
func setupLogger(env string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	case envProd:
		if !verbose {
			level = slog.LevelError
		}
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	case envLocal:
		fallthrough
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
}
