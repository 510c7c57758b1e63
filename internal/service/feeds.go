package service

import (
	"context"

	"github.com/pribylovaa/duta-client/internal/feed"
	"github.com/pribylovaa/duta-client/internal/models"
)

// RecentQuery — у ленты последней активности нет фильтра.
type RecentQuery struct{}

type (
	DonationsFeed = feed.Feed[models.Donation, models.DonationStatus]
	RecentFeed    = feed.Feed[models.Donation, RecentQuery]
)

// NewDonationsFeed — лента донаций с фильтром по статусу.
func (s *Service) NewDonationsFeed() *DonationsFeed {
	return feed.New("donations", func(ctx context.Context, status models.DonationStatus, page int) (models.Page[models.Donation], error) {
		return s.api.Donations(ctx, page, status)
	}, s.log)
}

// NewRecentFeed — лента последней активности (created_at по убыванию).
func (s *Service) NewRecentFeed() *RecentFeed {
	return feed.New("recent", func(ctx context.Context, _ RecentQuery, page int) (models.Page[models.Donation], error) {
		return s.api.RecentDonations(ctx, page, s.recentLimit)
	}, s.log)
}
