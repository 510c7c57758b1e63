// client — HTTP-клиент REST API доноров-амбассадоров.
//
// Отвечает за транспорт и конверт ответа:
//   - собирает запрос (JSON-тело, query, Bearer-токен);
//   - прогоняет его через цепочку interceptors (metadata -> logging -> metrics);
//   - разбирает конверт {success, message, data, errors} и классифицирует
//     сбои через internal/errors;
//   - на 401 по авторизованному вызову вызывает хук UnauthorizedFunc.
//
// Ретраев нет: каждая ошибка возвращается вызывающему ровно один раз.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pribylovaa/duta-client/internal/client/interceptors"
	apierrors "github.com/pribylovaa/duta-client/internal/errors"
	"github.com/pribylovaa/duta-client/internal/pkg/redact"
)

// maxBodySize — верхняя граница читаемого тела ответа.
const maxBodySize = 10 << 20

var (
	// ErrNoCredentials — авторизованный вызов без токена. Запрос не отправляется.
	ErrNoCredentials = errors.New("no access token")
	ErrBadBaseURL    = errors.New("invalid base url")
)

// Credentials — источник текущего токена доступа (обычно session.Manager).
type Credentials interface {
	AccessToken(ctx context.Context) (string, bool)
}

// UnauthorizedFunc вызывается, когда сервер ответил 401 на запрос с token.
type UnauthorizedFunc func(ctx context.Context, token string)

// Options — параметры клиента.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	Metrics   *interceptors.ClientMetrics
	// Transport — базовый транспорт; nil -> http.DefaultTransport.
	Transport http.RoundTripper
}

// Request — описание одного JSON-вызова.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Auth — вызов требует Bearer-токен.
	Auth bool
	// Token — явный токен (восстановление сессии); пусто -> из Credentials.
	Token string
	// RequireSuccess — ответ 2xx обязан содержать success:true.
	RequireSuccess bool
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     *slog.Logger

	mu             sync.RWMutex
	creds          Credentials
	onUnauthorized UnauthorizedFunc
}

// New собирает клиент и цепочку транспортных обёрток.
func New(opts Options) (*Client, error) {
	const op = "client.client.New"

	u, err := url.Parse(opts.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrBadBaseURL, opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt := interceptors.Chain(opts.Transport,
		interceptors.WithMetadata(opts.UserAgent),
		interceptors.Logging(logger),
		interceptors.Metrics(opts.Metrics),
	)

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Transport: rt},
		timeout: opts.Timeout,
		log:     logger,
	}, nil
}

// SetCredentials задаёт источник токена для авторизованных вызовов.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

// SetUnauthorizedHandler задаёт хук реакции на 401.
func (c *Client) SetUnauthorizedHandler(fn UnauthorizedFunc) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Do выполняет JSON-вызов и декодирует поле data ответа в out (если out != nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	const op = "client.client.Do"

	token, err := c.token(ctx, req.Auth, req.Token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var (
		body        io.Reader
		contentType string
	)
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	if err := c.send(ctx, call{
		method:         req.Method,
		path:           req.Path,
		query:          req.Query,
		body:           body,
		contentType:    contentType,
		contentLength:  -1,
		token:          token,
		requireSuccess: req.RequireSuccess,
	}, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) token(ctx context.Context, auth bool, explicit string) (string, error) {
	if !auth {
		return "", nil
	}
	if explicit != "" {
		return explicit, nil
	}

	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()

	if creds != nil {
		if t, ok := creds.AccessToken(ctx); ok && t != "" {
			return t, nil
		}
	}

	return "", &apierrors.Error{Kind: apierrors.KindUnauthorized, Err: ErrNoCredentials}
}

type call struct {
	method         string
	path           string
	query          url.Values
	body           io.Reader
	contentType    string
	contentLength  int64
	token          string
	requireSuccess bool
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func (c *Client) send(ctx context.Context, cl call, out any) error {
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, cl.method, target, cl.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if cl.contentLength >= 0 {
		httpReq.ContentLength = cl.contentLength
	}
	if cl.contentType != "" {
		httpReq.Header.Set("Content-Type", cl.contentType)
	}
	if cl.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return apierrors.Transport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return apierrors.Transport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		_ = json.Unmarshal(raw, &env)

		if resp.StatusCode == http.StatusUnauthorized && cl.token != "" {
			c.unauthorized(ctx, cl.token)
		}

		return apierrors.FromStatus(resp.StatusCode, env.Message, fieldErrors(env.Errors))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apierrors.Server(resp.StatusCode, "", fmt.Errorf("%w: %v", apierrors.ErrMalformedEnvelope, err))
	}

	if env.Success != nil && !*env.Success {
		return apierrors.Server(resp.StatusCode, env.Message, apierrors.ErrUnsuccessful)
	}
	if cl.requireSuccess && env.Success == nil {
		return apierrors.Server(resp.StatusCode, "", fmt.Errorf("%w: missing success flag", apierrors.ErrMalformedEnvelope))
	}

	if out == nil {
		return nil
	}

	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return apierrors.Server(resp.StatusCode, "", fmt.Errorf("%w: missing data", apierrors.ErrMalformedEnvelope))
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return apierrors.Server(resp.StatusCode, "", fmt.Errorf("%w: %v", apierrors.ErrMalformedEnvelope, err))
	}

	return nil
}

func (c *Client) unauthorized(ctx context.Context, token string) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()

	if fn == nil {
		return
	}

	c.log.Info("unauthorized_hook", slog.String("token", redact.Token(token)))
	// хук должен отработать даже если контекст вызова уже истекает
	fn(context.WithoutCancel(ctx), token)
}

// fieldErrors разбирает errors в формате {"field":["msg"]}; прочие формы игнорируются.
func fieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}

	var fields map[string][]string
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		return fields
	}

	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		fields = make(map[string][]string, len(flat))
		for k, v := range flat {
			fields[k] = []string{v}
		}
		return fields
	}

	return nil
}
