// auth — аутентификация стаба: пользователи из конфигурации (bcrypt) и
// access-токены JWT HS256 с отзывом по jti при выходе.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/duta-client/internal/config"
)

var (
	// ErrInvalidToken — токен некорректен по формату или подписи.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked — токен отозван через logout.
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims — проверенное содержимое access-токена.
type Claims struct {
	UserID    int64
	ID        string
	ExpiresAt time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
}

// Tokens выпускает, проверяет и отзывает access-токены.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokens(cfg config.StubAuthConfig) *Tokens {
	return &Tokens{
		secret:  []byte(cfg.JWTSecret),
		ttl:     cfg.AccessTokenTTL,
		issuer:  cfg.Issuer,
		revoked: make(map[string]time.Time),
	}
}

// Issue выпускает токен для userID.
func (t *Tokens) Issue(userID int64, now time.Time) (string, error) {
	const op = "stub.auth.tokens.Issue"

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Parse проверяет подпись, издателя, срок и отзыв.
func (t *Tokens) Parse(raw string) (Claims, error) {
	const op = "stub.auth.tokens.Parse"

	token, err := jwt.ParseWithClaims(raw, &accessClaims{},
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	ac, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || ac.ID == "" {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := strconv.ParseInt(ac.Subject, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	t.mu.Lock()
	_, revoked := t.revoked[ac.ID]
	t.mu.Unlock()

	if revoked {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	return Claims{UserID: uid, ID: ac.ID, ExpiresAt: ac.ExpiresAt.Time}, nil
}

// Revoke отзывает токен до истечения его срока. Просроченные записи вычищаются.
func (t *Tokens) Revoke(c Claims, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, exp := range t.revoked {
		if exp.Before(now) {
			delete(t.revoked, id)
		}
	}

	t.revoked[c.ID] = c.ExpiresAt
}
