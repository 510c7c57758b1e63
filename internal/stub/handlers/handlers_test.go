package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/pribylovaa/duta-client/internal/config"
	"github.com/pribylovaa/duta-client/internal/models"
	"github.com/pribylovaa/duta-client/internal/stub/auth"
	"github.com/pribylovaa/duta-client/internal/stub/donations"
	"github.com/pribylovaa/duta-client/internal/stub/middleware"
	"github.com/pribylovaa/duta-client/internal/stub/proofs"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Токены проверяются по реальным часам, поэтому testNow не фиксирован.
var testNow = time.Now().UTC().Truncate(time.Second)

type fixture struct {
	h      *Handlers
	proofs *proofs.Memory
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	users, err := auth.NewUsers([]config.SeedUser{
		{ID: 1, Login: "andi", Password: "secret", Name: "Andi", Email: "andi@example.com", Role: "duta", DutaType: "individu"},
	}, bcrypt.MinCost)
	require.NoError(t, err)

	store := donations.New(10)
	store.Seed(1, 23, testNow)

	mem := proofs.NewMemory()

	return fixture{
		h: &Handlers{
			Users:  users,
			Tokens: auth.NewTokens(config.StubAuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour, Issuer: "duta-stub"}),
			Store:  store,
			Proofs: mem,
			Limits: config.ProofsConfig{
				MaxSizeBytes:        1024,
				AllowedContentTypes: []string{"image/jpeg", "image/jpg", "image/png"},
			},
			Now: func() time.Time { return testNow },
		},
		proofs: mem,
	}
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())

	return env
}

func asUser(req *http.Request, id int64) *http.Request {
	return req.WithContext(middleware.WithClaims(req.Context(), auth.Claims{UserID: id, ID: "jti", ExpiresAt: testNow.Add(time.Hour)}))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	t.Run("ok by email", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.h.Login(rr, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"login":"ANDI@example.com","password":"secret"}`)))

		require.Equal(t, http.StatusOK, rr.Code)
		env := decode(t, rr)
		require.True(t, env.Success)

		var data loginResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotEmpty(t, data.AccessToken)
		require.Equal(t, "Bearer", data.TokenType)
		require.Equal(t, int64(1), data.User.ID)

		claims, err := f.h.Tokens.Parse(data.AccessToken)
		require.NoError(t, err)
		require.Equal(t, int64(1), claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.h.Login(rr, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"login":"andi","password":"nope"}`)))

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.False(t, decode(t, rr).Success)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.h.Login(rr, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"login":" "}`)))

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		env := decode(t, rr)
		require.Contains(t, env.Errors, "login")
		require.Contains(t, env.Errors, "password")
	})

	t.Run("unknown field", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.h.Login(rr, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"x"}`)))

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t)

	token, err := f.h.Tokens.Issue(1, testNow)
	require.NoError(t, err)
	claims, err := f.h.Tokens.Parse(token)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req = req.WithContext(middleware.WithClaims(context.Background(), claims))

	rr := httptest.NewRecorder()
	f.h.Logout(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	_, err = f.h.Tokens.Parse(token)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestUser(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.h.User(rr, asUser(httptest.NewRequest(http.MethodGet, "/user", nil), 1))
	require.Equal(t, http.StatusOK, rr.Code)

	var data userResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	require.Equal(t, "andi", data.User.Username)

	rr = httptest.NewRecorder()
	f.h.User(rr, asUser(httptest.NewRequest(http.MethodGet, "/user", nil), 99))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	f.h.User(rr, httptest.NewRequest(http.MethodGet, "/user", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.h.Dashboard(rr, asUser(httptest.NewRequest(http.MethodGet, "/duta/dashboard", nil), 1))

	require.Equal(t, http.StatusOK, rr.Code)
	env := decode(t, rr)
	require.True(t, env.Success)

	var d models.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.Equal(t, f.h.Store.Dashboard(1, testNow), d)
}

func TestDonations_PageConvention(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.h.Donations(rr, asUser(httptest.NewRequest(http.MethodGet, "/duta/donations?page=3", nil), 1))
	require.Equal(t, http.StatusOK, rr.Code)

	var data listResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	require.Len(t, data.Items, 3)
	require.Equal(t, donations.Meta{CurrentPage: 3, TotalPages: 3, PerPage: 10, Total: 23}, data.Meta)

	rr = httptest.NewRecorder()
	f.h.Donations(rr, asUser(httptest.NewRequest(http.MethodGet, "/duta/donations?status=pending", nil), 1))
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	require.NotEmpty(t, data.Items)
	for _, d := range data.Items {
		require.Equal(t, models.StatusPending, d.Status)
	}
}

func TestDonations_RecentConvention(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.h.Donations(rr, asUser(httptest.NewRequest(http.MethodGet, "/duta/donations?page=1&limit=5&sort=created_at&order=desc", nil), 1))
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &raw))
	require.Contains(t, raw, "has_more")
	require.NotContains(t, raw, "meta")

	var data recentResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	require.Len(t, data.Items, 5)
	require.True(t, data.HasMore)

	rr = httptest.NewRecorder()
	f.h.Donations(rr, asUser(httptest.NewRequest(http.MethodGet, "/duta/donations?page=5&limit=5", nil), 1))
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	require.Len(t, data.Items, 3)
	require.False(t, data.HasMore)
}

func TestDonations_BadParams(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"page=0", "page=x", "limit=0", "limit=51", "status=unknown"} {
		rr := httptest.NewRecorder()
		f.h.Donations(rr, asUser(httptest.NewRequest(http.MethodGet, "/duta/donations?"+q, nil), 1))
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code, q)
	}
}

func TestMasterData(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.h.MasterData(rr, httptest.NewRequest(http.MethodGet, "/master-data", nil))

	var md models.MasterData
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &md))
	require.Equal(t, donations.Programs, md.Programs)
}

type filePart struct {
	field, name, contentType string
	body                     []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []filePart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)

		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/duta/donations", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return asUser(req, 1)
}

func TestSubmitDonation_OK(t *testing.T) {
	f := newFixture(t)
	f.h.Now = func() time.Time { return testNow.Add(time.Minute) }

	req := multipartRequest(t,
		map[string]string{"program_id": "2", "amount": "150000", "payment_method_id": "1", "donor_name": "Budi", "transaction_date": "2026-10-14"},
		[]filePart{
			{field: "proof_of_transfer_1", name: "b.png", contentType: "image/png", body: []byte("png")},
			{field: "proof_of_transfer_0", name: "a.jpg", contentType: "image/jpg", body: []byte("jpeg")},
		},
	)

	rr := httptest.NewRecorder()
	f.h.SubmitDonation(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var data submitResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	require.Equal(t, "Sedekah Pangan", data.Donation.Program)
	require.Equal(t, "Transfer Bank", data.Donation.PaymentMethod)
	require.Equal(t, models.StatusPending, data.Donation.Status)
	require.Len(t, data.Proofs, 2)
	require.True(t, strings.HasSuffix(data.Proofs[0], ".jpg"))
	require.True(t, strings.HasSuffix(data.Proofs[1], ".png"))
	require.Equal(t, 2, f.proofs.Len())

	items, meta := f.h.Store.List(1, models.StatusAll, 1)
	require.Equal(t, 24, meta.Total)
	require.Equal(t, data.Donation.ID, items[0].ID)
}

func TestSubmitDonation_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		fields map[string]string
		files  []filePart
		field  string
	}{
		{
			name:   "no proofs",
			fields: map[string]string{"program_id": "1", "amount": "1000"},
			field:  "proof_of_transfer",
		},
		{
			name:   "unknown program",
			fields: map[string]string{"program_id": "42", "amount": "1000"},
			files:  []filePart{{field: "proof_of_transfer_0", name: "a.png", contentType: "image/png", body: []byte("x")}},
			field:  "program_id",
		},
		{
			name:   "non-positive amount",
			fields: map[string]string{"program_id": "1", "amount": "0"},
			files:  []filePart{{field: "proof_of_transfer_0", name: "a.png", contentType: "image/png", body: []byte("x")}},
			field:  "amount",
		},
		{
			name:   "wrong type",
			fields: map[string]string{"program_id": "1", "amount": "1000"},
			files:  []filePart{{field: "proof_of_transfer_0", name: "a.pdf", contentType: "application/pdf", body: []byte("x")}},
			field:  "proof_of_transfer_0",
		},
		{
			name:   "too large",
			fields: map[string]string{"program_id": "1", "amount": "1000"},
			files:  []filePart{{field: "proof_of_transfer_0", name: "a.png", contentType: "image/png", body: bytes.Repeat([]byte("x"), 2048)}},
			field:  "proof_of_transfer_0",
		},
		{
			name:   "bad date",
			fields: map[string]string{"program_id": "1", "amount": "1000", "transaction_date": "19/03/2026"},
			files:  []filePart{{field: "proof_of_transfer_0", name: "a.png", contentType: "image/png", body: []byte("x")}},
			field:  "transaction_date",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			f.h.SubmitDonation(rr, multipartRequest(t, tc.fields, tc.files))

			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
			require.Contains(t, decode(t, rr).Errors, tc.field)
		})
	}

	require.Equal(t, 0, f.proofs.Len())
}

func TestSubmitDonation_NotMultipart(t *testing.T) {
	f := newFixture(t)

	req := asUser(httptest.NewRequest(http.MethodPost, "/duta/donations", strings.NewReader(`{}`)), 1)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	f.h.SubmitDonation(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
