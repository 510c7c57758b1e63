package donations

import (
	"testing"
	"time"

	"github.com/pribylovaa/duta-client/internal/models"
	"github.com/stretchr/testify/require"
)

func TestStore_ListPaginationAndFilter(t *testing.T) {
	t.Parallel()

	s := New(10)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s.Seed(1, 23, now)

	items, meta := s.List(1, models.StatusAll, 1)
	require.Len(t, items, 10)
	require.Equal(t, Meta{CurrentPage: 1, TotalPages: 3, PerPage: 10, Total: 23}, meta)

	items, meta = s.List(1, models.StatusAll, 3)
	require.Len(t, items, 3)
	require.Equal(t, 3, meta.CurrentPage)

	items, _ = s.List(1, models.StatusAll, 4)
	require.NotNil(t, items)
	require.Empty(t, items)

	pending, meta := s.List(1, models.StatusPending, 1)
	require.NotEmpty(t, pending)
	for _, d := range pending {
		require.Equal(t, models.StatusPending, d.Status)
	}
	require.Equal(t, len(pending), meta.Total)

	// другой пользователь ничего не видит
	items, meta = s.List(2, models.StatusAll, 1)
	require.Empty(t, items)
	require.Zero(t, meta.TotalPages)
}

func TestStore_OrderedByCreatedDesc(t *testing.T) {
	t.Parallel()

	s := New(10)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	s.Add(1, models.Donation{DonorName: "old"}, base)
	s.Add(1, models.Donation{DonorName: "newest"}, base.Add(2*time.Hour))
	s.Add(1, models.Donation{DonorName: "middle"}, base.Add(time.Hour))

	items, more := s.Recent(1, 1, 5)
	require.False(t, more)
	require.Equal(t, "newest", items[0].DonorName)
	require.Equal(t, "middle", items[1].DonorName)
	require.Equal(t, "old", items[2].DonorName)
}

func TestStore_RecentHasMore(t *testing.T) {
	t.Parallel()

	s := New(10)
	s.Seed(1, 12, time.Now())

	p1, more := s.Recent(1, 1, 5)
	require.Len(t, p1, 5)
	require.True(t, more)

	p3, more := s.Recent(1, 3, 5)
	require.Len(t, p3, 2)
	require.False(t, more)

	require.NotEqual(t, p1[0].ID, p3[0].ID)
}

func TestStore_Dashboard(t *testing.T) {
	t.Parallel()

	s := New(10)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	lastMonth := now.AddDate(0, -1, 0)

	s.Add(1, models.Donation{Status: models.StatusValidated, Amount: 100}, now)
	s.Add(1, models.Donation{Status: models.StatusValidated, Amount: 999}, lastMonth)
	s.Add(1, models.Donation{Status: models.StatusRejected}, now)
	s.Add(1, models.Donation{Status: models.StatusRejected}, lastMonth)
	s.Add(1, models.Donation{Status: models.StatusPending}, lastMonth)
	s.Add(1, models.Donation{Status: models.StatusPending}, now)

	require.Equal(t, models.Dashboard{
		PendingCount:           2,
		RejectedCountThisMonth: 1,
		TotalVerifiedThisMonth: 100,
	}, s.Dashboard(1, now))
}

func TestMasterDataLookups(t *testing.T) {
	t.Parallel()

	name, ok := ProgramName(2)
	require.True(t, ok)
	require.Equal(t, "Sedekah Pangan", name)

	_, ok = PaymentMethodName(99)
	require.False(t, ok)

	require.Len(t, MasterData().Programs, len(Programs))

	_, err := ParseID("0")
	require.Error(t, err)
	id, err := ParseID("3")
	require.NoError(t, err)
	require.EqualValues(t, 3, id)
}
