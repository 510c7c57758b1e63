// respond пишет ответы стаба в формате конверта удалённого API:
//
//	{"success": true, "message": "...", "data": {...}}
//	{"success": false, "message": "...", "errors": {"field": ["..."]}}
package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope — корневой объект любого ответа.
type Envelope struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message,omitempty"`
	Data      any                 `json:"data,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// JSON пишет произвольное значение с нужным Content-Type.
func JSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// OK — успешный ответ с данными.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Error — неуспешный ответ. request_id берётся из заголовка запроса, если он есть.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, status, Envelope{Message: message, RequestID: r.Header.Get("X-Request-Id")})
}

// Validation — 422 с ошибками по полям.
func Validation(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	JSON(w, http.StatusUnprocessableEntity, Envelope{
		Message:   "The given data was invalid.",
		Errors:    fields,
		RequestID: r.Header.Get("X-Request-Id"),
	})
}

// Unauthenticated — 401 в формате сервера.
func Unauthenticated(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusUnauthorized, "Unauthenticated.")
}

// Internal — 500 без деталей.
func Internal(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusInternalServerError, "Server Error")
}
