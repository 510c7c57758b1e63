package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pribylovaa/duta-client/internal/client"
	apierrors "github.com/pribylovaa/duta-client/internal/errors"
	"github.com/pribylovaa/duta-client/internal/models"
)

// DefaultRecentLimit — размер страницы ленты последней активности.
const DefaultRecentLimit = 5

// Duta — эндпоинты кабинета амбассадора. Все вызовы авторизованные.
type Duta struct {
	t Transport
}

func NewDuta(t Transport) *Duta {
	return &Duta{t: t}
}

// Dashboard — GET /duta/dashboard; ответ обязан содержать success:true и data.
func (d *Duta) Dashboard(ctx context.Context) (models.Dashboard, error) {
	const op = "api.duta.Dashboard"

	var out models.Dashboard
	if err := d.t.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/duta/dashboard",
		Auth:           true,
		RequireSuccess: true,
	}, &out); err != nil {
		return models.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Donations — страница ленты донаций с фильтром по статусу (формат meta).
// StatusAll не передаёт параметр status.
func (d *Duta) Donations(ctx context.Context, page int, status models.DonationStatus) (models.Page[models.Donation], error) {
	const op = "api.duta.Donations"

	if page < 1 {
		page = 1
	}

	q := url.Values{"page": {strconv.Itoa(page)}}
	if status != models.StatusAll {
		q.Set("status", string(status))
	}

	var raw rawPage[models.Donation]
	if err := d.t.Do(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/duta/donations",
		Query:  q,
		Auth:   true,
	}, &raw); err != nil {
		return models.Page[models.Donation]{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := normalizePage(raw, page)
	if err != nil {
		return models.Page[models.Donation]{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// RecentDonations — страница последней активности (формат has_more),
// отсортированная по created_at по убыванию. limit <= 0 -> DefaultRecentLimit.
func (d *Duta) RecentDonations(ctx context.Context, page, limit int) (models.Page[models.Donation], error) {
	const op = "api.duta.RecentDonations"

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
		"sort":  {"created_at"},
		"order": {"desc"},
	}

	var raw rawPage[models.Donation]
	if err := d.t.Do(ctx, client.Request{
		Method:         http.MethodGet,
		Path:           "/duta/donations",
		Query:          q,
		Auth:           true,
		RequireSuccess: true,
	}, &raw); err != nil {
		return models.Page[models.Donation]{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := normalizePage(raw, page)
	if err != nil {
		return models.Page[models.Donation]{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// MasterData — GET /master-data (программы, обращения, способы оплаты).
func (d *Duta) MasterData(ctx context.Context) (models.MasterData, error) {
	const op = "api.duta.MasterData"

	var out models.MasterData
	if err := d.t.Do(ctx, client.Request{
		Method: http.MethodGet,
		Path:   "/master-data",
		Auth:   true,
	}, &out); err != nil {
		return models.MasterData{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// SubmitDonation — POST /duta/donations multipart-формой с фото подтверждения.
// Локально проверяются обязательные поля и наличие хотя бы одного фото;
// при ошибке запрос не отправляется.
func (d *Duta) SubmitDonation(ctx context.Context, sub models.DonationSubmission, progress client.ProgressFunc) error {
	const op = "api.duta.SubmitDonation"

	if err := validateSubmission(sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := d.t.Upload(ctx, "/duta/donations", sub.Fields(), sub.Proofs, progress, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func validateSubmission(sub models.DonationSubmission) error {
	if strings.TrimSpace(sub.ProgramID) == "" {
		return apierrors.Validation("program is required")
	}

	amount := strings.TrimSpace(sub.Amount)
	if amount == "" {
		return apierrors.Validation("amount is required")
	}
	if v, err := strconv.ParseFloat(amount, 64); err != nil || v <= 0 {
		return apierrors.Validation("amount must be a positive number")
	}

	if len(sub.Proofs) == 0 {
		return apierrors.Validation("at least one proof of transfer is required")
	}

	return nil
}
