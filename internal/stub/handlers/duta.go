package handlers

import (
	"net/http"

	"github.com/pribylovaa/duta-client/internal/models"
	"github.com/pribylovaa/duta-client/internal/stub/donations"
	"github.com/pribylovaa/duta-client/internal/stub/middleware"
	"github.com/pribylovaa/duta-client/internal/stub/respond"
)

const maxRecentLimit = 50

type listResponse struct {
	Items []models.Donation `json:"items"`
	Meta  donations.Meta    `json:"meta"`
}

type recentResponse struct {
	Items   []models.Donation `json:"items"`
	HasMore bool              `json:"has_more"`
}

// Dashboard — GET /duta/dashboard.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Unauthenticated(w, r)
		return
	}

	respond.OK(w, http.StatusOK, "", h.Store.Dashboard(claims.UserID, h.now()))
}

// Donations — GET /duta/donations.
// С параметром limit отвечает лентой последней активности ({items, has_more}),
// без него — страницей истории с фильтром статуса ({items, meta}).
func (h *Handlers) Donations(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Unauthenticated(w, r)
		return
	}

	page, ok := intParam(r, "page", 1)
	if !ok {
		respond.Validation(w, r, fieldError("page", "The page must be a positive integer."))
		return
	}

	if r.URL.Query().Has("limit") {
		limit, ok := intParam(r, "limit", 0)
		if !ok || limit > maxRecentLimit {
			respond.Validation(w, r, fieldError("limit", "The limit must be between 1 and 50."))
			return
		}

		items, more := h.Store.Recent(claims.UserID, page, limit)
		respond.OK(w, http.StatusOK, "", recentResponse{Items: items, HasMore: more})
		return
	}

	status, err := models.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		respond.Validation(w, r, fieldError("status", "The selected status is invalid."))
		return
	}

	items, meta := h.Store.List(claims.UserID, status, page)
	respond.OK(w, http.StatusOK, "", listResponse{Items: items, Meta: meta})
}

// MasterData — GET /master-data.
func (h *Handlers) MasterData(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, http.StatusOK, "", donations.MasterData())
}
