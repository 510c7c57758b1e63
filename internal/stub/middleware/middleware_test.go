package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	logctx "github.com/pribylovaa/duta-client/internal/pkg/log"
	"github.com/pribylovaa/duta-client/internal/stub/auth"
	"github.com/pribylovaa/duta-client/internal/stub/respond"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// capHandler — тестовый slog.Handler: копит attrs последней записи.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

type fakeParser struct {
	claims auth.Claims
	err    error
	seen   string
}

func (p *fakeParser) Parse(raw string) (auth.Claims, error) {
	p.seen = raw
	return p.claims, p.err
}

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mw("m1"), mw("m2")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndKeep(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
	}), RequestID())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rr.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "given")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "given", seen)
	require.Equal(t, "given", rr.Header().Get("X-Request-Id"))
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var env respond.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.NotEmpty(t, env.Message)
}

func TestLogging_RecordAndContextLogger(t *testing.T) {
	ch := &capHandler{}
	var ctxLogger *slog.Logger

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = logctx.From(r.Context())
		_, _ = w.Write([]byte("0123456789"))
	})

	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	req.Header.Set("X-Request-Id", "rid-456")

	rr := httptest.NewRecorder()
	Chain(final, RequestID(), Logging(slog.New(ch))).ServeHTTP(rr, req)

	require.NotNil(t, ctxLogger)
	require.Equal(t, 1, ch.count)
	require.Equal(t, "http", ch.lastMsg)
	require.Equal(t, slog.LevelInfo, ch.lastLvl)
	require.Equal(t, "rid-456", ch.attrs["request_id"])
	require.EqualValues(t, http.StatusOK, ch.attrs["status"])
	require.EqualValues(t, 10, ch.attrs["bytes"])
	require.Equal(t, "/log", ch.attrs["path"])
}

func TestLogging_ServerErrorLevel(t *testing.T) {
	ch := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	Chain(final, Logging(slog.New(ch))).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, slog.LevelError, ch.lastLvl)
	require.EqualValues(t, http.StatusBadGateway, ch.attrs["status"])
}

func TestTimeout(t *testing.T) {
	var hasDeadline bool
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}), Timeout(50*time.Millisecond))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, hasDeadline)

	Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}), Timeout(0)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, hasDeadline)
}

func TestTimeout_KeepsParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var child time.Time
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		child, _ = r.Context().Deadline()
	}), Timeout(time.Second))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(parent))

	want, _ := parent.Deadline()
	require.Equal(t, want, child)
}

func TestTimeout_WritesGatewayTimeout(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), Timeout(10*time.Millisecond))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/slow", nil))

	require.Equal(t, http.StatusGatewayTimeout, rr.Code)
	require.JSONEq(t, `{"success":false,"message":"Request timed out."}`, rr.Body.String())
}

func TestRequireAuth(t *testing.T) {
	want := auth.Claims{UserID: 7, ID: "jti-1"}

	var got auth.Claims
	var called bool
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got, _ = ClaimsFrom(r.Context())
	})

	t.Run("valid", func(t *testing.T) {
		p := &fakeParser{claims: want}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok-1")

		rr := httptest.NewRecorder()
		Chain(final, RequireAuth(p)).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "tok-1", p.seen)
		require.Equal(t, want, got)
	})

	cases := []struct {
		name   string
		header string
		err    error
	}{
		{"missing", "", nil},
		{"basic", "Basic abc", nil},
		{"empty bearer", "Bearer   ", nil},
		{"rejected", "Bearer tok-2", auth.ErrTokenRevoked},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rr := httptest.NewRecorder()
			Chain(final, RequireAuth(&fakeParser{err: tc.err})).ServeHTTP(rr, req)

			require.False(t, called)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			require.JSONEq(t, `{"success":false,"message":"Unauthenticated."}`, rr.Body.String())
		})
	}
}

func TestClaimsFrom_Missing(t *testing.T) {
	_, ok := ClaimsFrom(context.Background())
	require.False(t, ok)
}

func TestMetrics_ByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	require.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/items/{id}", "204")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := Metrics(nil)(final)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
