package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// DonationStatus — статус проверки донации.
type DonationStatus string

const (
	StatusAll              DonationStatus = ""
	StatusValidated        DonationStatus = "validated"
	StatusPending          DonationStatus = "pending"
	StatusRejected         DonationStatus = "rejected"
	StatusCorrectionNeeded DonationStatus = "correction_needed"
)

// Statuses — известные статусы в порядке отображения фильтров.
var Statuses = []DonationStatus{StatusValidated, StatusPending, StatusRejected, StatusCorrectionNeeded}

// ParseStatus разбирает значение фильтра; "all" и пустая строка означают "без фильтра".
func ParseStatus(s string) (DonationStatus, error) {
	switch v := DonationStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case "all", StatusAll:
		return StatusAll, nil
	case StatusValidated, StatusPending, StatusRejected, StatusCorrectionNeeded:
		return v, nil
	default:
		return "", fmt.Errorf("unknown donation status %q", s)
	}
}

// Label — человекочитаемая подпись статуса.
func (s DonationStatus) Label() string {
	switch s {
	case StatusAll:
		return "Semua"
	case StatusValidated:
		return "Terverifikasi"
	case StatusPending:
		return "Menunggu"
	case StatusRejected:
		return "Ditolak"
	case StatusCorrectionNeeded:
		return "Perbaikan"
	default:
		return string(s)
	}
}

// Amount — денежная сумма в рупиях. Сервер присылает её то строкой
// ("150000.00"), то числом; оба варианта принимаются.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	*a = Amount(v)
	return nil
}

// Donation — запись о донации из ленты.
type Donation struct {
	ID              int64          `json:"id"`
	Program         string         `json:"program"`
	DonorName       string         `json:"donor_name"`
	Amount          Amount         `json:"amount"`
	Status          DonationStatus `json:"status"`
	PaymentMethod   string         `json:"payment_method,omitempty"`
	TransactionDate string         `json:"transaction_date,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

// Proof — фото подтверждения перевода.
// ContentType можно не заполнять: он выводится из расширения файла ("image/<ext>").
type Proof struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MIMEType возвращает тип содержимого фото.
func (p Proof) MIMEType() string {
	if p.ContentType != "" {
		return p.ContentType
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p.Filename)), ".")
	if ext == "" {
		return "application/octet-stream"
	}

	return "image/" + ext
}

// DonationSubmission — новая донация с фото подтверждения.
type DonationSubmission struct {
	ProgramID       string
	SalutationID    string
	DonorName       string
	DonorPhone      string
	DonorEmail      string
	Amount          string
	PaymentMethodID string
	TransactionDate string
	Notes           string
	Proofs          []Proof
}

// FormField — поле multipart-формы.
type FormField struct {
	Name  string
	Value string
}

// Fields возвращает непустые поля формы в стабильном порядке.
func (s DonationSubmission) Fields() []FormField {
	all := []FormField{
		{"program_id", s.ProgramID},
		{"salutation_id", s.SalutationID},
		{"donor_name", s.DonorName},
		{"donor_phone", s.DonorPhone},
		{"donor_email", s.DonorEmail},
		{"amount", s.Amount},
		{"payment_method_id", s.PaymentMethodID},
		{"transaction_date", s.TransactionDate},
		{"notes", s.Notes},
	}

	out := all[:0]
	for _, f := range all {
		if f.Value != "" {
			out = append(out, f)
		}
	}

	return out
}

// ProofField — имя поля формы для i-го фото.
func ProofField(i int) string { return "proof_of_transfer_" + strconv.Itoa(i) }
