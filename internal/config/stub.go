package config

import (
	"fmt"
	"net"
	"time"
)

// StubConfig — конфигурация локального стаба API (cmd/duta-stub).
type StubConfig struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     StubAuthConfig `yaml:"auth"`
	Proofs   ProofsConfig   `yaml:"proofs"`
	S3       S3Config       `yaml:"s3"`
	Users    []SeedUser     `yaml:"users"`
	Seed     SeedConfig     `yaml:"seed"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// HTTPConfig — публичный REST-сервер стаба.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50090"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// StubAuthConfig содержит параметры выпуска и валидации access-токенов.
type StubAuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"JWT_SECRET"       env-required:"true"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"24h"`
	Issuer         string        `yaml:"issuer"           env:"ISSUER"           env-default:"duta-stub"`
}

// ProofsConfig — ограничения на фото подтверждения перевода.
type ProofsConfig struct {
	Driver              string   `yaml:"driver"                env:"PROOFS_DRIVER"                env-default:"memory"`
	MaxSizeBytes        int64    `yaml:"max_size_bytes"        env:"PROOFS_MAX_SIZE_BYTES"        env-default:"5242880"`
	AllowedContentTypes []string `yaml:"allowed_content_types" env:"PROOFS_ALLOWED_CONTENT_TYPES" env-separator:"," env-default:"image/jpeg,image/jpg,image/png,image/webp"`
}

// S3Config — подключение к MinIO/S3 для драйвера proofs=minio.
type S3Config struct {
	Endpoint      string `yaml:"endpoint"        env:"S3_ENDPOINT"`
	RootUser      string `yaml:"root_user"       env:"S3_ROOT_USER"`
	RootPassword  string `yaml:"root_password"   env:"S3_ROOT_PASSWORD"`
	Bucket        string `yaml:"bucket"          env:"S3_BUCKET" env-default:"proofs"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// SeedUser — пользователь, которого стаб создаёт при старте.
// Пароль хранится в конфиге открытым текстом и хэшируется bcrypt при загрузке.
type SeedUser struct {
	ID       int64  `yaml:"id"`
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	DutaType string `yaml:"duta_type"`
}

// SeedConfig — объём демонстрационных данных на каждого пользователя.
type SeedConfig struct {
	Donations int `yaml:"donations" env:"SEED_DONATIONS" env-default:"23"`
	PerPage   int `yaml:"per_page"  env:"SEED_PER_PAGE"  env-default:"10"`
}

// TimeoutConfig — таймаут обработки запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
}

// Validate проверяет согласованность конфигурации стаба.
func (c *StubConfig) Validate() error {
	switch c.Proofs.Driver {
	case "memory":
	case "minio":
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("proofs driver minio requires s3.endpoint and s3.bucket")
		}
	default:
		return fmt.Errorf("unknown proofs driver %q", c.Proofs.Driver)
	}

	if c.Seed.Donations < 0 || c.Seed.PerPage <= 0 {
		return fmt.Errorf("seed: donations must be >= 0 and per_page > 0")
	}

	seen := make(map[string]struct{}, len(c.Users))
	for _, u := range c.Users {
		if u.Login == "" || u.Password == "" {
			return fmt.Errorf("seed user %d: login and password are required", u.ID)
		}

		if _, ok := seen[u.Login]; ok {
			return fmt.Errorf("seed user %q: duplicate login", u.Login)
		}
		seen[u.Login] = struct{}{}
	}

	return nil
}

// MustLoadStub — паника при ошибке загрузки.
func MustLoadStub(path string) *StubConfig {
	cfg, err := LoadStub(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadStub загружает конфигурацию стаба по тем же правилам, что и Load.
func LoadStub(path string) (*StubConfig, error) {
	var cfg StubConfig
	if err := load(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stub config: %w", err)
	}

	return &cfg, nil
}
