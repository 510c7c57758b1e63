// config - источник загрузки конфигурации для CLI-клиента (duta) и
// локального стаба API (duta-stub).
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
//
// После чтения файла поверх значений из YAML накладываются ENV-переменные.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Поддерживаемые драйверы хранилища токена.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config — корневая конфигурация клиента.
type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Feed    FeedConfig    `yaml:"feed"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig — параметры удалённого REST API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"API_BASE_URL"   env-default:"https://v2.yisadmin.com/api/v1"`
	Timeout   time.Duration `yaml:"timeout"    env:"API_TIMEOUT"    env-default:"15s"`
	UserAgent string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"duta-client"`
}

// StoreConfig — где хранится access-токен между запусками.
type StoreConfig struct {
	Driver     string `yaml:"driver"      env:"STORE_DRIVER"      env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"STORE_SQLITE_PATH" env-default:"duta.db"`
	RedisURL   string `yaml:"redis_url"   env:"STORE_REDIS_URL"   env-default:"redis://localhost:6379/0"`
	Prefix     string `yaml:"prefix"      env:"STORE_PREFIX"      env-default:"duta:"`
	TokenKey   string `yaml:"token_key"   env:"STORE_TOKEN_KEY"   env-default:"access_token"`
}

// FeedConfig — параметры лент.
type FeedConfig struct {
	RecentLimit int `yaml:"recent_limit" env:"FEED_RECENT_LIMIT" env-default:"5"`
}

// MetricsConfig — отдельный HTTP для Prometheus. Пустой порт отключает экспорт.
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"METRICS_PORT"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// Enabled сообщает, сконфигурирован ли экспорт метрик.
func (m MetricsConfig) Enabled() bool { return m.Port != "" }

// Validate проверяет согласованность значений, которые cleanenv не проверяет.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("empty api base_url")
	}

	if c.Feed.RecentLimit <= 0 {
		return fmt.Errorf("feed recent_limit must be positive, got %d", c.Feed.RecentLimit)
	}

	return nil
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию клиента и валидирует её.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// load — общий для обоих бинарей порядок поиска источников.
func load(path string, cfg any) error {
	tryRead := func(p string) error {
		if p == "" {
			return fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", cfg); err != nil {
			return fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return nil
}
