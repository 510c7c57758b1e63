package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/duta-client/internal/models"
	logctx "github.com/pribylovaa/duta-client/internal/pkg/log"
	"github.com/pribylovaa/duta-client/internal/stub/auth"
	"github.com/pribylovaa/duta-client/internal/stub/middleware"
	"github.com/pribylovaa/duta-client/internal/stub/respond"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

type userResponse struct {
	User models.User `json:"user"`
}

// Login — POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "Malformed request body.")
		return
	}

	fields := map[string][]string{}
	if strings.TrimSpace(req.Login) == "" {
		fields["login"] = []string{"The login field is required."}
	}
	if req.Password == "" {
		fields["password"] = []string{"The password field is required."}
	}
	if len(fields) > 0 {
		respond.Validation(w, r, fields)
		return
	}

	user, err := h.Users.Authenticate(req.Login, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respond.Error(w, r, http.StatusUnauthorized, "Login atau password salah.")
			return
		}

		respond.Internal(w, r)
		return
	}

	token, err := h.Tokens.Issue(user.ID, h.now())
	if err != nil {
		logctx.From(r.Context()).Error("token_issue_failed", slog.String("error", err.Error()))
		respond.Internal(w, r)
		return
	}

	logctx.From(r.Context()).Info("login_ok", slog.Int64("user_id", user.ID))
	respond.OK(w, http.StatusOK, "Login berhasil.", loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        user,
	})
}

// Logout — POST /logout; отзывает текущий токен.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Unauthenticated(w, r)
		return
	}

	h.Tokens.Revoke(claims, h.now())

	logctx.From(r.Context()).Info("logout_ok", slog.Int64("user_id", claims.UserID))
	respond.OK(w, http.StatusOK, "Logout berhasil.", nil)
}

// User — GET /user.
func (h *Handlers) User(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Unauthenticated(w, r)
		return
	}

	user, err := h.Users.ByID(claims.UserID)
	if err != nil {
		respond.Unauthenticated(w, r)
		return
	}

	respond.OK(w, http.StatusOK, "", userResponse{User: user})
}
