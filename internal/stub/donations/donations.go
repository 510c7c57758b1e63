// donations — in-memory хранилище донаций стаба с обеими схемами пагинации:
// номер страницы + meta (лента с фильтром) и limit + has_more (последняя активность).
package donations

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pribylovaa/duta-client/internal/models"
)

// Справочники стаба.
var (
	Programs = []models.Option{
		{ID: 1, Name: "Beasiswa Yatim"},
		{ID: 2, Name: "Sedekah Pangan"},
		{ID: 3, Name: "Wakaf Sumur"},
	}
	Salutations = []models.Option{
		{ID: 1, Name: "Bapak"},
		{ID: 2, Name: "Ibu"},
		{ID: 3, Name: "Saudara"},
	}
	PaymentMethods = []models.Option{
		{ID: 1, Name: "Transfer Bank"},
		{ID: 2, Name: "QRIS"},
		{ID: 3, Name: "Tunai"},
	}
)

// MasterData — справочники для формы новой донации.
func MasterData() models.MasterData {
	return models.MasterData{Programs: Programs, Salutations: Salutations, PaymentMethods: PaymentMethods}
}

func optionName(opts []models.Option, id int64) (string, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o.Name, true
		}
	}

	return "", false
}

// ProgramName возвращает название программы по id.
func ProgramName(id int64) (string, bool) { return optionName(Programs, id) }

// PaymentMethodName возвращает название способа оплаты по id.
func PaymentMethodName(id int64) (string, bool) { return optionName(PaymentMethods, id) }

type record struct {
	d       models.Donation
	created time.Time
}

// Store хранит донации по пользователям. Элементы каждого пользователя
// упорядочены по created_at по убыванию.
type Store struct {
	perPage int

	mu     sync.RWMutex
	nextID int64
	byUser map[int64][]record
}

func New(perPage int) *Store {
	if perPage <= 0 {
		perPage = 10
	}

	return &Store{perPage: perPage, nextID: 1, byUser: make(map[int64][]record)}
}

// Seed заполняет хранилище n демонстрационными донациями пользователя,
// распределёнными назад во времени от now с шагом в 7 часов.
func (s *Store) Seed(userID int64, n int, now time.Time) {
	statuses := []models.DonationStatus{
		models.StatusValidated, models.StatusPending, models.StatusValidated,
		models.StatusRejected, models.StatusCorrectionNeeded,
	}
	donors := []string{"Ahmad", "Siti", "Budi", "Dewi", "Rahmat", "Lestari"}

	for i := 0; i < n; i++ {
		program := Programs[i%len(Programs)]
		method := PaymentMethods[i%len(PaymentMethods)]
		created := now.Add(-time.Duration(i) * 7 * time.Hour)

		s.Add(userID, models.Donation{
			Program:         program.Name,
			DonorName:       donors[i%len(donors)],
			Amount:          models.Amount(50000 * (i%7 + 1)),
			Status:          statuses[i%len(statuses)],
			PaymentMethod:   method.Name,
			TransactionDate: created.Format(time.DateOnly),
		}, created)
	}
}

// Add сохраняет донацию пользователя и возвращает её с присвоенным id.
func (s *Store) Add(userID int64, d models.Donation, created time.Time) models.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextID
	s.nextID++
	d.CreatedAt = created.UTC().Format(time.RFC3339)

	list := append(s.byUser[userID], record{d: d, created: created})
	sort.SliceStable(list, func(i, j int) bool { return list[i].created.After(list[j].created) })
	s.byUser[userID] = list

	return d
}

// Meta — пагинация по номеру страницы.
type Meta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// List — страница page (с 1) донаций пользователя с необязательным фильтром статуса.
func (s *Store) List(userID int64, status models.DonationStatus, page int) ([]models.Donation, Meta) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []models.Donation
	for _, r := range s.byUser[userID] {
		if status == models.StatusAll || r.d.Status == status {
			filtered = append(filtered, r.d)
		}
	}

	total := len(filtered)
	meta := Meta{
		CurrentPage: page,
		TotalPages:  (total + s.perPage - 1) / s.perPage,
		PerPage:     s.perPage,
		Total:       total,
	}

	return window(filtered, (page-1)*s.perPage, s.perPage), meta
}

// Recent — страница последней активности и признак продолжения.
func (s *Store) Recent(userID int64, page, limit int) ([]models.Donation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.Donation, 0, len(s.byUser[userID]))
	for _, r := range s.byUser[userID] {
		all = append(all, r.d)
	}

	from := (page - 1) * limit
	return window(all, from, limit), from+limit < len(all)
}

// Dashboard считает сводку за календарный месяц now.
func (s *Store) Dashboard(userID int64, now time.Time) models.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	y, m, _ := now.Date()
	var out models.Dashboard

	for _, r := range s.byUser[userID] {
		ry, rm, _ := r.created.In(now.Location()).Date()
		thisMonth := ry == y && rm == m

		switch r.d.Status {
		case models.StatusPending:
			out.PendingCount++
		case models.StatusRejected:
			if thisMonth {
				out.RejectedCountThisMonth++
			}
		case models.StatusValidated:
			if thisMonth {
				out.TotalVerifiedThisMonth += r.d.Amount
			}
		}
	}

	return out
}

func window(items []models.Donation, from, n int) []models.Donation {
	if from < 0 || from >= len(items) {
		return []models.Donation{}
	}

	to := from + n
	if to > len(items) {
		to = len(items)
	}

	out := make([]models.Donation, to-from)
	copy(out, items[from:to])

	return out
}

// ParseID разбирает положительный идентификатор из формы.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}

	return id, nil
}
