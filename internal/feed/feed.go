// feed — постраничная лента с запросом (фильтром), общая для всех списков клиента.
//
// Модель:
//   - страницы хранятся без пропусков: страница k+1 добавляется только после
//     успешной загрузки страницы k;
//   - Items — конкатенация страниц в порядке загрузки, без сортировки и дедупликации;
//   - каждый запуск LoadFirstPage/Refresh открывает новую эпоху; результат,
//     выпущенный в старой эпохе, отбрасывается (ErrStale);
//   - Close отменяет все загрузки и делает их результаты пустыми (ErrClosed).
//
// Методы блокируются на время сетевого вызова и безопасны для вызова из
// нескольких горутин; мьютекс не удерживается во время fetch.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pribylovaa/duta-client/internal/models"
)

var (
	ErrStale  = errors.New("feed: stale result discarded")
	ErrClosed = errors.New("feed: closed")
)

// Fetcher загружает страницу page (с 1) для запроса q.
type Fetcher[T any, Q comparable] func(ctx context.Context, q Q, page int) (models.Page[T], error)

// Status — фаза ленты.
type Status int

const (
	StatusIdle Status = iota
	StatusLoadingFirst
	StatusLoadingMore
	StatusRefreshing
	StatusError
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoadingFirst:
		return "loading-first"
	case StatusLoadingMore:
		return "loading-more"
	case StatusRefreshing:
		return "refreshing"
	case StatusError:
		return "error"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Snapshot — согласованный срез состояния ленты.
type Snapshot[T any, Q comparable] struct {
	Status  Status
	Query   Q
	Items   []T
	Pages   int
	HasMore bool
	// Err — ошибка первой страницы или обновления (статус error).
	Err error
	// NextPageErr — ошибка последней догрузки; уже загруженные элементы сохранены.
	NextPageErr error
}

type Feed[T any, Q comparable] struct {
	name  string
	fetch Fetcher[T, Q]
	log   *slog.Logger

	mu       sync.Mutex
	epoch    uint64
	query    Q
	hasQuery bool
	pages    []models.Page[T]
	status   Status
	err      error
	nextErr  error
	closed   bool
	seq      uint64
	inflight map[uint64]inflight
}

type inflight struct {
	epoch  uint64
	cancel context.CancelFunc
}

// New создаёт ленту. name попадает в логи (например, "donations", "recent").
func New[T any, Q comparable](name string, fetch Fetcher[T, Q], logger *slog.Logger) *Feed[T, Q] {
	if logger == nil {
		logger = slog.Default()
	}

	return &Feed[T, Q]{
		name:     name,
		fetch:    fetch,
		log:      logger,
		inflight: make(map[uint64]inflight),
	}
}

// LoadFirstPage сбрасывает ленту и загружает первую страницу для q.
// При ошибке лента пуста, статус error, ошибка доступна через Err.
func (f *Feed[T, Q]) LoadFirstPage(ctx context.Context, q Q) error {
	return f.reload(ctx, q, false)
}

// Refresh перезагружает первую страницу текущего запроса, не скрывая уже
// загруженные страницы до прихода ответа.
func (f *Feed[T, Q]) Refresh(ctx context.Context) error {
	f.mu.Lock()
	q := f.query
	f.mu.Unlock()

	return f.reload(ctx, q, true)
}

// RefreshWith — Refresh с новым запросом.
func (f *Feed[T, Q]) RefreshWith(ctx context.Context, q Q) error {
	return f.reload(ctx, q, true)
}

// ChangeQuery загружает ленту заново, если запрос изменился. Тот же запрос — no-op.
func (f *Feed[T, Q]) ChangeQuery(ctx context.Context, q Q) error {
	f.mu.Lock()
	same := f.hasQuery && f.query == q
	closed := f.closed
	f.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if same {
		return nil
	}

	return f.LoadFirstPage(ctx, q)
}

func (f *Feed[T, Q]) reload(ctx context.Context, q Q, keep bool) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}

	f.epoch++
	epoch := f.epoch
	f.cancelOlder(epoch)

	f.query = q
	f.hasQuery = true
	f.err = nil
	f.nextErr = nil

	if keep && len(f.pages) > 0 {
		f.status = StatusRefreshing
	} else {
		f.pages = nil
		f.status = StatusLoadingFirst
	}

	fctx, id := f.track(ctx, epoch)
	f.mu.Unlock()

	l := f.log.With(slog.String("feed", f.name), slog.Uint64("epoch", epoch))

	page, err := f.fetch(fctx, q, 1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.untrack(id)

	if f.closed {
		return ErrClosed
	}
	if epoch != f.epoch {
		l.Debug("feed_page_stale", slog.Int("page", 1))
		return ErrStale
	}

	if err != nil {
		f.status = StatusError
		f.err = err
		l.Warn("feed_page_failed", slog.Int("page", 1), slog.String("err", err.Error()))
		return err
	}

	if page.Number == 0 {
		page.Number = 1
	}
	f.pages = []models.Page[T]{page}
	f.status = StatusSettled
	l.Debug("feed_page_loaded", slog.Int("page", 1), slog.Int("items", len(page.Items)), slog.Bool("has_more", page.HasMore))

	return nil
}

// LoadNextPage догружает следующую страницу. No-op (nil), если лента не в
// статусе settled или последняя страница сообщила о конце данных.
// Одновременно выполняется не более одной догрузки.
// При ошибке загруженные элементы сохраняются, статус возвращается в settled.
func (f *Feed[T, Q]) LoadNextPage(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.status != StatusSettled || len(f.pages) == 0 || !f.pages[len(f.pages)-1].HasMore {
		f.mu.Unlock()
		return nil
	}

	epoch := f.epoch
	q := f.query
	n := len(f.pages) + 1
	f.status = StatusLoadingMore
	f.nextErr = nil

	fctx, id := f.track(ctx, epoch)
	f.mu.Unlock()

	l := f.log.With(slog.String("feed", f.name), slog.Uint64("epoch", epoch))

	page, err := f.fetch(fctx, q, n)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.untrack(id)

	if f.closed {
		return ErrClosed
	}
	if epoch != f.epoch {
		l.Debug("feed_page_stale", slog.Int("page", n))
		return ErrStale
	}

	f.status = StatusSettled

	if err != nil {
		f.nextErr = err
		l.Warn("feed_page_failed", slog.Int("page", n), slog.String("err", err.Error()))
		return err
	}

	page.Number = n
	f.pages = append(f.pages, page)
	l.Debug("feed_page_loaded", slog.Int("page", n), slog.Int("items", len(page.Items)), slog.Bool("has_more", page.HasMore))

	return nil
}

// Close отменяет все загрузки в полёте; дальнейшие операции возвращают ErrClosed.
// Загруженные данные остаются доступны для чтения.
func (f *Feed[T, Q]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.closed = true
	for id, in := range f.inflight {
		in.cancel()
		delete(f.inflight, id)
	}
}

// track регистрирует загрузку в полёте. Вызывается под мьютексом.
func (f *Feed[T, Q]) track(ctx context.Context, epoch uint64) (context.Context, uint64) {
	fctx, cancel := context.WithCancel(ctx)
	f.seq++
	f.inflight[f.seq] = inflight{epoch: epoch, cancel: cancel}

	return fctx, f.seq
}

func (f *Feed[T, Q]) untrack(id uint64) {
	if in, ok := f.inflight[id]; ok {
		in.cancel()
		delete(f.inflight, id)
	}
}

// cancelOlder отменяет загрузки прошлых эпох: их результаты всё равно будут отброшены.
func (f *Feed[T, Q]) cancelOlder(epoch uint64) {
	for id, in := range f.inflight {
		if in.epoch < epoch {
			in.cancel()
			delete(f.inflight, id)
		}
	}
}

// Items — все загруженные элементы в порядке страниц.
func (f *Feed[T, Q]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.itemsLocked()
}

func (f *Feed[T, Q]) itemsLocked() []T {
	n := 0
	for _, p := range f.pages {
		n += len(p.Items)
	}

	out := make([]T, 0, n)
	for _, p := range f.pages {
		out = append(out, p.Items...)
	}

	return out
}

// Pages — копия загруженных страниц.
func (f *Feed[T, Q]) Pages() []models.Page[T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Page[T], len(f.pages))
	copy(out, f.pages)

	return out
}

func (f *Feed[T, Q]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.status
}

func (f *Feed[T, Q]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.err
}

func (f *Feed[T, Q]) NextPageErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.nextErr
}

// HasMore — последняя загруженная страница сообщила о продолжении.
func (f *Feed[T, Q]) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.hasMoreLocked()
}

func (f *Feed[T, Q]) hasMoreLocked() bool {
	return len(f.pages) > 0 && f.pages[len(f.pages)-1].HasMore
}

func (f *Feed[T, Q]) Query() Q {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.query
}

func (f *Feed[T, Q]) Snapshot() Snapshot[T, Q] {
	f.mu.Lock()
	defer f.mu.Unlock()

	return Snapshot[T, Q]{
		Status:      f.status,
		Query:       f.query,
		Items:       f.itemsLocked(),
		Pages:       len(f.pages),
		HasMore:     f.hasMoreLocked(),
		Err:         f.err,
		NextPageErr: f.nextErr,
	}
}
