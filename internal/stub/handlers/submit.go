package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/duta-client/internal/models"
	logctx "github.com/pribylovaa/duta-client/internal/pkg/log"
	"github.com/pribylovaa/duta-client/internal/stub/donations"
	"github.com/pribylovaa/duta-client/internal/stub/middleware"
	"github.com/pribylovaa/duta-client/internal/stub/proofs"
	"github.com/pribylovaa/duta-client/internal/stub/respond"
)

// maxProofs — максимум фото в одной донации.
const maxProofs = 5

type submitResponse struct {
	Donation models.Donation `json:"donation"`
	Proofs   []string        `json:"proofs"`
}

// SubmitDonation — POST /duta/donations (multipart/form-data).
func (h *Handlers) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Unauthenticated(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Limits.MaxSizeBytes*maxProofs+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, http.StatusRequestEntityTooLarge, "The request is too large.")
			return
		}

		respond.Error(w, r, http.StatusBadRequest, "Malformed multipart form.")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	d, fields := h.parseDonation(r.MultipartForm)

	files, fileErrs := h.proofFiles(r.MultipartForm)
	for k, v := range fileErrs {
		fields[k] = v
	}

	if len(fields) > 0 {
		respond.Validation(w, r, fields)
		return
	}

	log := logctx.From(r.Context())

	keys := make([]string, 0, len(files))
	for _, fh := range files {
		ct := fh.Header.Get("Content-Type")

		f, err := fh.Open()
		if err != nil {
			respond.Internal(w, r)
			return
		}

		obj, err := h.Proofs.Put(r.Context(), proofs.Key(claims.UserID, proofs.ExtFor(ct)), ct, f, fh.Size)
		_ = f.Close()
		if err != nil {
			log.Error("proof_store_failed", slog.String("error", err.Error()))
			respond.Internal(w, r)
			return
		}

		keys = append(keys, obj.Key)
	}

	saved := h.Store.Add(claims.UserID, d, h.now())

	log.Info("donation_created",
		slog.Int64("user_id", claims.UserID),
		slog.Int64("donation_id", saved.ID),
		slog.Int("proofs", len(keys)),
	)

	respond.OK(w, http.StatusCreated, "Donasi berhasil dikirim.", submitResponse{Donation: saved, Proofs: keys})
}

// parseDonation собирает донацию из полей формы и ошибки валидации по полям.
func (h *Handlers) parseDonation(form *multipart.Form) (models.Donation, map[string][]string) {
	value := func(name string) string {
		if v := form.Value[name]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	errs := map[string][]string{}
	d := models.Donation{
		DonorName:       value("donor_name"),
		Status:          models.StatusPending,
		TransactionDate: value("transaction_date"),
		Notes:           value("notes"),
	}

	if id, err := donations.ParseID(value("program_id")); err != nil {
		errs["program_id"] = []string{"The program id field is required."}
	} else if name, ok := donations.ProgramName(id); !ok {
		errs["program_id"] = []string{"The selected program id is invalid."}
	} else {
		d.Program = name
	}

	amount, err := strconv.ParseFloat(value("amount"), 64)
	if err != nil || amount <= 0 {
		errs["amount"] = []string{"The amount must be greater than 0."}
	}
	d.Amount = models.Amount(amount)

	if raw := value("payment_method_id"); raw != "" {
		id, err := donations.ParseID(raw)
		name, ok := donations.PaymentMethodName(id)
		if err != nil || !ok {
			errs["payment_method_id"] = []string{"The selected payment method id is invalid."}
		}
		d.PaymentMethod = name
	}

	if d.TransactionDate != "" {
		if _, err := time.Parse(time.DateOnly, d.TransactionDate); err != nil {
			errs["transaction_date"] = []string{"The transaction date does not match the format Y-m-d."}
		}
	}

	return d, errs
}

// proofFiles возвращает файлы proof_of_transfer_<i> в порядке индекса.
func (h *Handlers) proofFiles(form *multipart.Form) ([]*multipart.FileHeader, map[string][]string) {
	type indexed struct {
		i  int
		fh *multipart.FileHeader
	}

	errs := map[string][]string{}
	var list []indexed

	for name, fhs := range form.File {
		rest, ok := strings.CutPrefix(name, "proof_of_transfer_")
		if !ok || len(fhs) == 0 {
			continue
		}

		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 {
			continue
		}

		fh := fhs[0]
		switch {
		case !proofs.IsAllowedContentType(h.Limits.AllowedContentTypes, fh.Header.Get("Content-Type")):
			errs[name] = []string{"The file must be an image of type: jpeg, jpg, png, webp."}
		case fh.Size == 0:
			errs[name] = []string{"The file must not be empty."}
		case fh.Size > h.Limits.MaxSizeBytes:
			errs[name] = []string{"The file is too large."}
		}

		list = append(list, indexed{i: i, fh: fh})
	}

	switch {
	case len(list) == 0:
		errs["proof_of_transfer"] = []string{"At least one proof of transfer is required."}
	case len(list) > maxProofs:
		errs["proof_of_transfer"] = []string{"No more than 5 proofs are allowed."}
	}

	sort.Slice(list, func(a, b int) bool { return list[a].i < list[b].i })

	out := make([]*multipart.FileHeader, len(list))
	for k, it := range list {
		out[k] = it.fh
	}

	return out, errs
}
