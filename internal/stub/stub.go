package stub

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/duta-client/internal/config"
	"github.com/pribylovaa/duta-client/internal/stub/auth"
	"github.com/pribylovaa/duta-client/internal/stub/donations"
	"github.com/pribylovaa/duta-client/internal/stub/handlers"
	"github.com/pribylovaa/duta-client/internal/stub/proofs"
	"github.com/pribylovaa/duta-client/internal/stub/proofs/minio"
)

// NewHandlers собирает зависимости стаба из конфигурации: пользователей,
// токены, засеянные донации и хранилище фото выбранного драйвера.
// bcryptCost == 0 — стоимость по умолчанию.
func NewHandlers(ctx context.Context, cfg *config.StubConfig, bcryptCost int, now time.Time) (*handlers.Handlers, error) {
	const op = "stub.NewHandlers"

	users, err := auth.NewUsers(cfg.Users, bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store := donations.New(cfg.Seed.PerPage)
	for _, id := range users.IDs() {
		store.Seed(id, cfg.Seed.Donations, now)
	}

	var proofStore proofs.Store
	switch cfg.Proofs.Driver {
	case "minio":
		proofStore, err = minio.New(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		proofStore = proofs.NewMemory()
	}

	return &handlers.Handlers{
		Users:  users,
		Tokens: auth.NewTokens(cfg.Auth),
		Store:  store,
		Proofs: proofStore,
		Limits: cfg.Proofs,
	}, nil
}
