// session — единственный владелец сессии пользователя: токена доступа и
// текущего пользователя.
//
// Машина состояний:
//
//	Unknown -> Authenticated | Anonymous   (Restore)
//	Anonymous -> Authenticated              (Login)
//	Authenticated -> Anonymous              (Logout, 401 через Invalidate)
//
// Инварианты:
//   - пользователь есть тогда и только тогда, когда есть токен, принятый
//     сервером при последней проверке;
//   - персистентный токен пишет и удаляет только Manager;
//   - эпоха сессии растёт при каждом переходе, поэтому запоздавший результат
//     Restore не перетирает состояние, выставленное Login/Logout/Invalidate.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	apierrors "github.com/pribylovaa/duta-client/internal/errors"
	"github.com/pribylovaa/duta-client/internal/models"
	"github.com/pribylovaa/duta-client/internal/pkg/redact"
	"github.com/pribylovaa/duta-client/internal/storage"
)

//go:generate mockgen -source=session.go -destination=../../mocks/auth_api_mock.go -package=mocks

// DefaultTokenKey — ключ токена в хранилище.
const DefaultTokenKey = "access_token"

var (
	// ErrEmptyCredentials — пустой логин или пароль. Класс: validation.
	ErrEmptyCredentials = apierrors.Validation("login and password are required")

	// ErrLoginInProgress — вход уже выполняется.
	ErrLoginInProgress = errors.New("login already in progress")
)

// AuthAPI — удалённые операции аутентификации (*api.Auth).
type AuthAPI interface {
	Login(ctx context.Context, login, password string) (models.LoginResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (models.User, error)
}

// State — состояние сессии.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// Snapshot — неизменяемый срез сессии для подписчиков.
type Snapshot struct {
	State State
	User  *models.User
}

type Manager struct {
	api   AuthAPI
	store storage.TokenStore
	key   string
	log   *slog.Logger

	// storeMu упорядочивает записи в хранилище вместе со сменой эпохи.
	storeMu sync.Mutex

	mu     sync.RWMutex
	state  State
	token  string
	user   *models.User
	epoch  uint64
	subs   map[int]chan Snapshot
	nextID int

	restoreOnce sync.Once
	readyOnce   sync.Once
	ready       chan struct{}
	loggingIn   atomic.Bool
}

// New создаёт менеджер в состоянии Unknown. key == "" -> DefaultTokenKey.
func New(api AuthAPI, store storage.TokenStore, key string, logger *slog.Logger) *Manager {
	if key == "" {
		key = DefaultTokenKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		api:   api,
		store: store,
		key:   key,
		log:   logger,
		subs:  make(map[int]chan Snapshot),
		ready: make(chan struct{}),
	}
}

// Restore восстанавливает сессию из хранилища. Ошибок не возвращает: любая
// неудача проверки токена приводит к Anonymous и удалению сохранённого токена.
// Удалённая проверка выполняется не более одного раза за жизнь Manager;
// повторные вызовы возвращают текущий снимок.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	m.restoreOnce.Do(func() {
		m.restore(ctx)
		m.markReady()
	})

	return m.Snapshot()
}

func (m *Manager) restore(ctx context.Context) {
	const op = "session.session.Restore"
	l := m.log.With(slog.String("op", op))

	m.mu.RLock()
	epoch, state := m.epoch, m.state
	m.mu.RUnlock()

	if state != StateUnknown {
		return
	}

	token, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.Warn("restore_store_failed", slog.String("err", err.Error()))
		}
		m.settleAnonymous(epoch)
		return
	}

	if token == "" {
		m.settleAnonymous(epoch)
		return
	}

	user, err := m.api.CurrentUser(ctx, token)
	if err != nil {
		l.Info("restore_rejected",
			slog.String("kind", string(apierrors.KindOf(err))),
			slog.String("token", redact.Token(token)),
		)

		m.storeMu.Lock()
		defer m.storeMu.Unlock()

		if m.currentEpoch() == epoch {
			if err := m.store.Delete(ctx, m.key); err != nil {
				l.Warn("restore_delete_failed", slog.String("err", err.Error()))
			}
		}
		m.settleAnonymous(epoch)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		l.Debug("restore_superseded")
		return
	}

	m.epoch++
	m.state = StateAuthenticated
	m.token = token
	m.user = &user
	m.publishLocked()

	l.Info("restore_ok", slog.Int64("user_id", user.ID))
}

func (m *Manager) settleAnonymous(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		return
	}

	m.epoch++
	m.state = StateAnonymous
	m.token = ""
	m.user = nil
	m.publishLocked()
}

// Login выполняет вход. При ошибке прежнее состояние не меняется.
func (m *Manager) Login(ctx context.Context, login, password string) (*models.User, error) {
	const op = "session.session.Login"
	l := m.log.With(slog.String("op", op), slog.String("login", redact.Login(login)))

	if strings.TrimSpace(login) == "" || password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCredentials)
	}

	if !m.loggingIn.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s: %w", op, ErrLoginInProgress)
	}
	defer m.loggingIn.Store(false)

	res, err := m.api.Login(ctx, strings.TrimSpace(login), password)
	if err != nil {
		l.Warn("login_failed", slog.String("kind", string(apierrors.KindOf(err))))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	if err := m.store.Set(ctx, m.key, res.AccessToken); err != nil {
		l.Error("login_persist_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: persist token: %w", op, err)
	}

	user := res.User

	m.mu.Lock()
	m.epoch++
	m.state = StateAuthenticated
	m.token = res.AccessToken
	m.user = &user
	m.publishLocked()
	m.mu.Unlock()

	m.markReady()
	l.Info("login_ok", slog.Int64("user_id", user.ID))

	out := user
	return &out, nil
}

// Logout завершает сессию. Удалённый вызов best-effort: его ошибка только
// логируется. Локальное состояние очищается всегда; возвращается лишь ошибка
// удаления токена из хранилища. В состоянии Anonymous — no-op.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.session.Logout"
	l := m.log.With(slog.String("op", op))

	m.mu.RLock()
	state, token := m.state, m.token
	m.mu.RUnlock()

	if state == StateAnonymous {
		return nil
	}

	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			l.Warn("logout_remote_failed", slog.String("kind", string(apierrors.KindOf(err))))
		}
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	m.epoch++
	m.state = StateAnonymous
	m.token = ""
	m.user = nil
	m.publishLocked()
	m.mu.Unlock()

	m.markReady()

	if err := m.store.Delete(ctx, m.key); err != nil {
		l.Error("logout_delete_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	l.Info("logout_ok")
	return nil
}

// Invalidate — реакция на 401: сбрасывает сессию, если token совпадает
// с текущим. Подключается как client.UnauthorizedFunc.
func (m *Manager) Invalidate(ctx context.Context, token string) {
	const op = "session.session.Invalidate"

	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	if token == "" || token != m.token {
		m.mu.Unlock()
		return
	}

	m.epoch++
	m.state = StateAnonymous
	m.token = ""
	m.user = nil
	m.publishLocked()
	m.mu.Unlock()

	l := m.log.With(slog.String("op", op))
	if err := m.store.Delete(ctx, m.key); err != nil {
		l.Error("invalidate_delete_failed", slog.String("err", err.Error()))
	}

	l.Info("session_invalidated", slog.String("token", redact.Token(token)))
}

// AccessToken возвращает токен, если сессия аутентифицирована (client.Credentials).
func (m *Manager) AccessToken(context.Context) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != StateAuthenticated {
		return "", false
	}

	return m.token, true
}

// Current возвращает копию текущего пользователя или nil.
func (m *Manager) Current() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return copyUser(m.user)
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshotLocked()
}

// Ready закрывается, когда состояние сессии определено (Restore завершён
// или состоялся Login/Logout).
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait блокируется до Ready или отмены ctx.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe возвращает канал снимков и функцию отписки. Текущий снимок
// доставляется сразу. Медленный подписчик получает только последний снимок.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	ch <- m.snapshotLocked()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) publishLocked() {
	snap := m.snapshotLocked()

	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// вытесняем устаревший снимок
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{State: m.state, User: copyUser(m.user)}
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.epoch
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}

	out := *u
	return &out
}
