package service

import (
	"context"
	"fmt"

	"github.com/pribylovaa/duta-client/internal/models"
	"golang.org/x/sync/errgroup"
)

// Home — данные главного экрана.
type Home struct {
	Dashboard models.Dashboard
	// DashboardErr — ошибка загрузки сводки; лента при этом может быть загружена.
	DashboardErr error
	Recent       []models.Donation
	RecentErr    error
	HasMore      bool
}

// LoadHome параллельно загружает сводку и первую страницу ленты recent
// (pull-to-refresh главного экрана). Уже загруженные страницы ленты остаются
// видимыми до ответа. Ошибка одной части не отменяет другую; возвращается
// первая из ошибок.
func (s *Service) LoadHome(ctx context.Context, recent *RecentFeed) (Home, error) {
	const op = "service.home.LoadHome"

	var (
		g                  errgroup.Group
		dash               models.Dashboard
		dashErr, recentErr error
	)

	g.Go(func() error {
		d, err := s.api.Dashboard(ctx)
		if err != nil {
			dashErr = err
			return err
		}
		dash = d
		return nil
	})

	g.Go(func() error {
		recentErr = recent.RefreshWith(ctx, RecentQuery{})
		return recentErr
	})

	err := g.Wait()

	snap := recent.Snapshot()
	out := Home{
		Dashboard:    dash,
		DashboardErr: dashErr,
		Recent:       snap.Items,
		RecentErr:    recentErr,
		HasMore:      snap.HasMore,
	}

	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
