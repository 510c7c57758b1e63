package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/duta-client/internal/client"
	"github.com/pribylovaa/duta-client/internal/models"
)

// Auth — эндпоинты аутентификации.
type Auth struct {
	t Transport
}

func NewAuth(t Transport) *Auth {
	return &Auth{t: t}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login — POST /login без Bearer.
func (a *Auth) Login(ctx context.Context, login, password string) (models.LoginResult, error) {
	const op = "api.auth.Login"

	var out models.LoginResult
	err := a.t.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   loginRequest{Login: login, Password: password},
	}, &out)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if out.AccessToken == "" {
		return models.LoginResult{}, fmt.Errorf("%s: %w", op, malformed("login without access_token"))
	}

	return out, nil
}

// Logout — POST /logout с указанным токеном.
func (a *Auth) Logout(ctx context.Context, token string) error {
	const op = "api.auth.Logout"

	if err := a.t.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/logout",
		Auth:   true,
		Token:  token,
	}, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CurrentUser — GET /user с явным токеном (проверка сохранённой сессии).
func (a *Auth) CurrentUser(ctx context.Context, token string) (models.User, error) {
	const op = "api.auth.CurrentUser"

	var out struct {
		User *models.User `json:"user"`
	}
	if err := a.t.Do(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/user",
		Auth:   true,
		Token:  token,
	}, &out); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if out.User == nil {
		return models.User{}, fmt.Errorf("%s: %w", op, malformed("user missing"))
	}

	return *out.User, nil
}
