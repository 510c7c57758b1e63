package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	apierrors "github.com/pribylovaa/duta-client/internal/errors"
	"github.com/pribylovaa/duta-client/internal/models"
	"github.com/stretchr/testify/require"
)

type staticCreds string

func (s staticCreds) AccessToken(context.Context) (string, bool) {
	return string(s), s != ""
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/api/v1", Timeout: 2 * time.Second, UserAgent: "test"})
	require.NoError(t, err)

	return c, srv
}

func TestNew_BadBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://x", "not a url", "http://"} {
		_, err := New(Options{BaseURL: raw})
		require.ErrorIs(t, err, ErrBadBaseURL, raw)
	}
}

func TestDo_DecodesDataAndSendsRequest(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		b, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"login":"duta","password":"secret"}`, string(b))

		_, _ = io.WriteString(w, `{"success":true,"data":{"access_token":"tok","user":{"id":7,"name":"Duta"}}}`)
	})

	var out models.LoginResult
	err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   map[string]string{"login": "duta", "password": "secret"},
	}, &out)
	require.NoError(t, err)
	require.Equal(t, "tok", out.AccessToken)
	require.EqualValues(t, 7, out.User.ID)
}

func TestDo_BearerAndQuery(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "pending", r.URL.Query().Get("status"))
		_, _ = io.WriteString(w, `{"data":{"items":[]}}`)
	})
	c.SetCredentials(staticCreds("abc"))

	var out map[string]any
	err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/duta/donations",
		Query:  url.Values{"page": {"2"}, "status": {"pending"}},
		Auth:   true,
	}, &out)
	require.NoError(t, err)
}

func TestDo_ExplicitTokenWins(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer persisted", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{"user":{"id":1}}}`)
	})
	c.SetCredentials(staticCreds("memory"))

	var out map[string]any
	require.NoError(t, c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/user", Auth: true, Token: "persisted"}, &out))
}

func TestDo_AuthWithoutCredentialsIsRejectedLocally(t *testing.T) {
	t.Parallel()

	hit := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hit = true })

	hooked := false
	c.SetUnauthorizedHandler(func(context.Context, string) { hooked = true })

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/duta/dashboard", Auth: true}, nil)
	require.Error(t, err)
	require.True(t, apierrors.IsUnauthorized(err))
	require.ErrorIs(t, err, ErrNoCredentials)
	require.False(t, hit)
	require.False(t, hooked)
}

func TestDo_StatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		kind   apierrors.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Unauthenticated."}`, apierrors.KindUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ``, apierrors.KindRateLimited},
		{"server", http.StatusBadGateway, `<html>bad gateway</html>`, apierrors.KindServer},
		{"validation", http.StatusUnprocessableEntity, `{"message":"invalid","errors":{"amount":["required"]}}`, apierrors.KindValidation},
		{"not found", http.StatusNotFound, `{}`, apierrors.KindValidation},
		{"redirect", http.StatusNotModified, ``, apierrors.KindUnknown},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil)
			require.Error(t, err)
			require.Equal(t, tc.kind, apierrors.KindOf(err))

			var ae *apierrors.Error
			require.ErrorAs(t, err, &ae)
			require.Equal(t, tc.status, ae.Status)
		})
	}
}

func TestDo_ValidationFields(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"The given data was invalid.","errors":{"login":["required"],"amount":["numeric","min"]}}`)
	})

	err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/login"}, nil)

	var ae *apierrors.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "The given data was invalid.", ae.Message)
	require.Equal(t, []string{"amount: numeric", "amount: min", "login: required"}, ae.FieldErrors())
}

func TestDo_UnauthorizedHookReceivesToken(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c.SetCredentials(staticCreds("current"))

	var got []string
	c.SetUnauthorizedHandler(func(ctx context.Context, token string) {
		require.NoError(t, ctx.Err())
		got = append(got, token)
	})

	err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/duta/dashboard", Auth: true}, nil)
	require.True(t, apierrors.IsUnauthorized(err))
	require.Equal(t, []string{"current"}, got)

	// 401 на неавторизованный вызов (логин) хук не трогает.
	got = nil
	err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/login"}, nil)
	require.True(t, apierrors.IsUnauthorized(err))
	require.Empty(t, got)
}

func TestDo_EnvelopeContract(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		body           string
		requireSuccess bool
		sentinel       error
	}{
		{"success false", `{"success":false,"message":"nope"}`, false, apierrors.ErrUnsuccessful},
		{"missing data", `{"success":true}`, false, apierrors.ErrMalformedEnvelope},
		{"null data", `{"success":true,"data":null}`, false, apierrors.ErrMalformedEnvelope},
		{"not json", `oops`, false, apierrors.ErrMalformedEnvelope},
		{"wrong shape", `{"data":[1,2,3]}`, false, apierrors.ErrMalformedEnvelope},
		{"success required", `{"data":{"pending_count":1}}`, true, apierrors.ErrMalformedEnvelope},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			})

			var out models.Dashboard
			err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/duta/dashboard", RequireSuccess: tc.requireSuccess}, &out)
			require.Error(t, err)
			require.Equal(t, apierrors.KindServer, apierrors.KindOf(err))
			require.ErrorIs(t, err, tc.sentinel)
		})
	}
}

func TestDo_NilOutIgnoresData(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"message":"Logged out"}`)
	})
	c.SetCredentials(staticCreds("t"))

	require.NoError(t, c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/logout", Auth: true}, nil))
}

func TestDo_TransportErrorsAreNetwork(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	require.NoError(t, err)

	err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/user"}, nil)
	require.Equal(t, apierrors.KindNetwork, apierrors.KindOf(err))
}

func TestDo_TimeoutIsNetwork(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/user"}, nil)
	require.Equal(t, apierrors.KindNetwork, apierrors.KindOf(err))
}

func TestDo_CallerCancelIsUnknown(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/user"}, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, apierrors.KindUnknown, apierrors.KindOf(err))
}

func TestUpload_MultipartAndProgress(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		require.Equal(t, "3", r.FormValue("program_id"))
		require.Equal(t, "150000", r.FormValue("amount"))

		f0, h0, err := r.FormFile("proof_of_transfer_0")
		require.NoError(t, err)
		defer f0.Close()
		require.Equal(t, "a.jpg", h0.Filename)
		require.Equal(t, "image/jpg", h0.Header.Get("Content-Type"))
		b, _ := io.ReadAll(f0)
		require.Equal(t, "first", string(b))

		_, h1, err := r.FormFile("proof_of_transfer_1")
		require.NoError(t, err)
		require.Equal(t, "image/png", h1.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"message":"created","data":{"id":42,"status":"pending"}}`)
	})
	c.SetCredentials(staticCreds("tok"))

	var (
		mu       sync.Mutex
		progress []int
	)
	onProgress := func(p int) {
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
	}

	var out models.Donation
	err := c.Upload(context.Background(), "/duta/donations",
		[]models.FormField{{Name: "program_id", Value: "3"}, {Name: "amount", Value: "150000"}},
		[]models.Proof{
			{Filename: "a.jpg", Body: bytes.NewBufferString("first")},
			{Filename: "b.PNG", Body: bytes.NewReader(bytes.Repeat([]byte{1}, 64<<10))},
		},
		onProgress, &out)
	require.NoError(t, err)
	require.EqualValues(t, 42, out.ID)
	require.Equal(t, models.StatusPending, out.Status)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, progress)
	require.Equal(t, 100, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		require.Greater(t, progress[i], progress[i-1])
	}
}

func TestUpload_RequiresCredentials(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	err := c.Upload(context.Background(), "/duta/donations", nil,
		[]models.Proof{{Filename: "a.jpg", Body: bytes.NewBufferString("x")}}, nil, nil)
	require.True(t, apierrors.IsUnauthorized(err))
}

func TestUpload_EmptyProofBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.SetCredentials(staticCreds("tok"))

	err := c.Upload(context.Background(), "/duta/donations", nil, []models.Proof{{Filename: "a.jpg"}}, nil, nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoCredentials))
}
