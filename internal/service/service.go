// service собирает прикладные сценарии клиента поверх api и feed:
// ленты донаций, главный экран, справочники и отправку новой донации.
//
// Состояния сессии сервис не знает: авторизацию обеспечивает транспорт,
// а реакцию на 401 — session.Manager.
package service

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/duta-client/internal/client"
	"github.com/pribylovaa/duta-client/internal/models"
)

//go:generate mockgen -source=service.go -destination=../../mocks/duta_api_mock.go -package=mocks

// DutaAPI — удалённые операции кабинета (*api.Duta).
type DutaAPI interface {
	Dashboard(ctx context.Context) (models.Dashboard, error)
	Donations(ctx context.Context, page int, status models.DonationStatus) (models.Page[models.Donation], error)
	RecentDonations(ctx context.Context, page, limit int) (models.Page[models.Donation], error)
	MasterData(ctx context.Context) (models.MasterData, error)
	SubmitDonation(ctx context.Context, sub models.DonationSubmission, progress client.ProgressFunc) error
}

type Service struct {
	api         DutaAPI
	recentLimit int
	log         *slog.Logger
}

// New создаёт сервис. recentLimit — размер страницы ленты последней активности.
func New(api DutaAPI, recentLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{api: api, recentLimit: recentLimit, log: logger}
}

// Dashboard возвращает сводку главного экрана.
func (s *Service) Dashboard(ctx context.Context) (models.Dashboard, error) {
	return s.api.Dashboard(ctx)
}

// MasterData возвращает справочники для формы новой донации.
func (s *Service) MasterData(ctx context.Context) (models.MasterData, error) {
	return s.api.MasterData(ctx)
}

// Submit отправляет новую донацию; progress получает процент отправки.
func (s *Service) Submit(ctx context.Context, sub models.DonationSubmission, progress client.ProgressFunc) error {
	if err := s.api.SubmitDonation(ctx, sub, progress); err != nil {
		return err
	}

	s.log.Info("donation_submitted",
		slog.String("program_id", sub.ProgramID),
		slog.Int("proofs", len(sub.Proofs)),
	)

	return nil
}
