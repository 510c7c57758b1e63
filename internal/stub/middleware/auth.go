package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	logctx "github.com/pribylovaa/duta-client/internal/pkg/log"
	"github.com/pribylovaa/duta-client/internal/stub/auth"
	"github.com/pribylovaa/duta-client/internal/stub/respond"
)

// TokenParser проверяет access-токен.
type TokenParser interface {
	Parse(raw string) (auth.Claims, error)
}

type claimsKey struct{}

// ClaimsFrom достаёт проверенные claims, положенные RequireAuth.
func ClaimsFrom(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return c, ok
}

// WithClaims кладёт claims в контекст.
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// RequireAuth пропускает только запросы с действующим Bearer-токеном;
// остальным отвечает 401 "Unauthenticated.".
func RequireAuth(tokens TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				respond.Unauthenticated(w, r)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelDebug, "auth_rejected",
					slog.String("error", err.Error()),
				)
				respond.Unauthenticated(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])

	return token, token != ""
}
