// handlers — REST-обработчики стаба удалённого API доноров-амбассадоров.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pribylovaa/duta-client/internal/config"
	"github.com/pribylovaa/duta-client/internal/stub/auth"
	"github.com/pribylovaa/duta-client/internal/stub/donations"
	"github.com/pribylovaa/duta-client/internal/stub/proofs"
)

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	Users  *auth.Users
	Tokens *auth.Tokens
	Store  *donations.Store
	Proofs proofs.Store
	Limits config.ProofsConfig
	// Now — источник времени; nil означает time.Now.
	Now func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}

	return time.Now()
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// intParam читает положительное целое из query; отсутствие — def.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}

	return v, true
}

func fieldError(field, msg string) map[string][]string {
	return map[string][]string{field: {msg}}
}
