// errors классифицирует сбои обращения к REST API в небольшую таксономию,
// по которой вызывающий код (CLI, сессия, ленты) решает, что показать
// пользователю:
//   - network — сбой транспорта, нет связи, истёк дедлайн;
//   - unauthorized — токен отклонён или истёк (HTTP 401);
//   - server — 5xx, success:false или битый конверт ответа;
//   - rate_limited — HTTP 429;
//   - validation — прочие 4xx (ошибка во входных данных);
//   - unknown — всё, что не удалось отнести к классам выше.
//
// Автоматических ретраев на этом уровне нет: ошибка возвращается один раз,
// решение принимает вызывающий.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Kind — класс ошибки.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindServer       Kind = "server"
	KindRateLimited  Kind = "rate_limited"
	KindValidation   Kind = "validation"
	KindUnknown      Kind = "unknown"
)

var (
	// ErrMalformedEnvelope — ответ 2xx, но тело не соответствует контракту
	// (нет data, невалидный JSON). Класс: server.
	ErrMalformedEnvelope = stderrors.New("malformed response envelope")

	// ErrUnsuccessful — ответ 2xx с success:false. Класс: server.
	ErrUnsuccessful = stderrors.New("unsuccessful response")
)

// Error — классифицированная ошибка обращения к API.
// Status == 0, если ответа от сервера не было.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Fields — ошибки валидации по полям (формат {"errors":{"field":["msg"]}}).
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))

	if e.Status != 0 {
		fmt.Fprintf(&b, " (http %d)", e.Status)
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// FieldErrors возвращает ошибки валидации в стабильном порядке "field: msg".
func (e *Error) FieldErrors() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, msg := range e.Fields[k] {
			out = append(out, k+": "+msg)
		}
	}

	return out
}

// KindFromStatus — базовый маппинг HTTP-статуса в класс ошибки.
//   - 401 -> unauthorized
//   - 429 -> rate_limited
//   - 5xx -> server
//   - прочие 4xx -> validation
//   - прочее -> unknown
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500 && status <= 599:
		return KindServer
	case status >= 400 && status <= 499:
		return KindValidation
	default:
		return KindUnknown
	}
}

// FromStatus строит ошибку по неуспешному HTTP-ответу.
func FromStatus(status int, message string, fields map[string][]string) *Error {
	return &Error{
		Kind:    KindFromStatus(status),
		Status:  status,
		Message: message,
		Fields:  fields,
	}
}

// Server — ошибка класса server для ответов 2xx, нарушивших контракт.
func Server(status int, message string, cause error) *Error {
	return &Error{Kind: KindServer, Status: status, Message: message, Err: cause}
}

// Validation — локальная ошибка входных данных (до отправки запроса).
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Transport оборачивает ошибку http.Client.Do.
// Отмена контекста вызывающим не считается сетевым сбоем и уходит в unknown.
func Transport(err error) *Error {
	kind := KindNetwork
	if stderrors.Is(err, context.Canceled) {
		kind = KindUnknown
	}

	return &Error{Kind: kind, Err: err}
}

// KindOf возвращает класс произвольной ошибки.
//
// Поведение:
//   - nil -> "" (ошибки нет);
//   - *Error в цепочке -> его Kind;
//   - context.DeadlineExceeded, *url.Error, net.Error -> network;
//   - прочее -> unknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var ae *Error
	if stderrors.As(err, &ae) {
		return ae.Kind
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	var ue *url.Error
	if stderrors.As(err, &ue) {
		return KindNetwork
	}

	var ne net.Error
	if stderrors.As(err, &ne) {
		return KindNetwork
	}

	return KindUnknown
}

// IsUnauthorized — сокращение для KindOf(err) == KindUnauthorized.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// UserMessage — короткое безопасное сообщение для пользователя.
func UserMessage(err error) string {
	switch KindOf(err) {
	case "":
		return ""
	case KindNetwork:
		return "no connection to the server, check your network"
	case KindUnauthorized:
		return "session expired, please log in again"
	case KindServer:
		return "server error, try again later"
	case KindRateLimited:
		return "too many requests, wait a moment"
	case KindValidation:
		var ae *Error
		if stderrors.As(err, &ae) && ae.Message != "" {
			return ae.Message
		}
		return "request rejected, check the entered data"
	default:
		return "unexpected error"
	}
}
