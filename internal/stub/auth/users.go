package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pribylovaa/duta-client/internal/config"
	"github.com/pribylovaa/duta-client/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials — логин не найден или пароль неверен.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type account struct {
	user models.User
	hash []byte
}

// Users — неизменяемый после старта набор пользователей.
type Users struct {
	byLogin map[string]*account
	byID    map[int64]*account
	ids     []int64
}

// NewUsers хэширует пароли seed-пользователей. Вход возможен и по логину,
// и по e-mail (без учёта регистра).
func NewUsers(seeds []config.SeedUser, cost int) (*Users, error) {
	const op = "stub.auth.users.NewUsers"

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	u := &Users{
		byLogin: make(map[string]*account, len(seeds)*2),
		byID:    make(map[int64]*account, len(seeds)),
	}

	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, s.Login, err)
		}

		acc := &account{
			user: models.User{
				ID:       s.ID,
				Name:     s.Name,
				Username: s.Login,
				Email:    s.Email,
				Role:     s.Role,
				DutaType: s.DutaType,
			},
			hash: hash,
		}

		u.byLogin[normalize(s.Login)] = acc
		if s.Email != "" {
			u.byLogin[normalize(s.Email)] = acc
		}
		u.byID[s.ID] = acc
		u.ids = append(u.ids, s.ID)
	}

	return u, nil
}

// Authenticate проверяет пару логин/пароль.
func (u *Users) Authenticate(login, password string) (models.User, error) {
	acc, ok := u.byLogin[normalize(login)]
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return acc.user, nil
}

func (u *Users) ByID(id int64) (models.User, error) {
	acc, ok := u.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}

	return acc.user, nil
}

// IDs — идентификаторы в порядке конфигурации.
func (u *Users) IDs() []int64 {
	out := make([]int64, len(u.ids))
	copy(out, u.ids)

	return out
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
