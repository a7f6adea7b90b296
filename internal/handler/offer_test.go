package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/cache"
	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/domain/offer"
)

// --- Mock repository ---

type mockRepo struct {
	stored  map[string]offer.Offer
	byBank  []offer.Offer
	findErr error
	deleted int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{stored: make(map[string]offer.Offer)}
}

func (m *mockRepo) CreateBatch(_ context.Context, offers []offer.Offer) (int, error) {
	created := 0
	for _, o := range offers {
		if _, ok := m.stored[o.OfferID]; ok {
			continue
		}
		m.stored[o.OfferID] = o
		created++
	}
	return created, nil
}

func (m *mockRepo) FindByBank(_ context.Context, _ string) ([]offer.Offer, error) {
	return m.byBank, m.findErr
}

func (m *mockRepo) FindByBankAndInstrument(_ context.Context, _, _ string) ([]offer.Offer, error) {
	return m.byBank, m.findErr
}

func (m *mockRepo) List(_ context.Context, skip, limit int) ([]offer.Offer, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if skip >= len(m.byBank) {
		return nil, nil
	}
	end := min(skip+limit, len(m.byBank))
	return m.byBank[skip:end], nil
}

func (m *mockRepo) DeleteAll(_ context.Context) (int64, error) {
	return m.deleted, m.findErr
}

// --- Helpers ---

func newTestHandler(repo offer.Repository) http.Handler {
	svc := offer.NewService(repo, cache.NewMemory(), 0)
	return New(svc).Routes()
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

const ingestBody = `{
	"flipkartOfferApiResponse": {
		"pageData": {
			"paymentOptions": {
				"items": [
					{
						"type": "OFFER_LIST",
						"data": {
							"offers": {
								"offerList": [
									{"id": "T1", "provider": ["AXIS"], "offerText": {"text": "Get ₹100 cashback"}},
									{"id": "T2", "provider": [], "offerText": {"text": "Get ₹10 cashback"}}
								]
							}
						}
					},
					{"type": "PAYMENT_OPTION", "data": {"instrumentType": "CREDIT"}}
				]
			}
		}
	}
}`

// --- Tests ---

func TestCreateOffers(t *testing.T) {
	h := newTestHandler(newMockRepo())

	rec := doRequest(t, h, http.MethodPost, "/offer", ingestBody)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[offerResponse](t, rec)
	assert.Equal(t, 2, got.NoOfOffersIdentified)
	assert.Equal(t, 2, got.NoOfNewOffersCreated)
}

func TestCreateOffers_Reingest(t *testing.T) {
	h := newTestHandler(newMockRepo())

	doRequest(t, h, http.MethodPost, "/offer", ingestBody)
	rec := doRequest(t, h, http.MethodPost, "/offer", ingestBody)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[offerResponse](t, rec)
	assert.Equal(t, 2, got.NoOfOffersIdentified)
	assert.Equal(t, 0, got.NoOfNewOffersCreated)
}

func TestCreateOffers_EmptyPayload(t *testing.T) {
	h := newTestHandler(newMockRepo())

	rec := doRequest(t, h, http.MethodPost, "/offer", `{"flipkartOfferApiResponse": {}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[offerResponse](t, rec)
	assert.Zero(t, got.NoOfOffersIdentified)
	assert.Zero(t, got.NoOfNewOffersCreated)
}

func TestCreateOffers_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid JSON", body: `{"flipkartOfferApiResponse": `},
		{name: "missing wrapper", body: `{"somethingElse": {}}`},
		{name: "wrapper is not an object", body: `{"flipkartOfferApiResponse": "nope"}`},
		{name: "empty body", body: " "},
	}

	h := newTestHandler(newMockRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/offer", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			got := decodeBody[errorResponse](t, rec)
			assert.Equal(t, http.StatusBadRequest, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestHighestDiscount(t *testing.T) {
	repo := newMockRepo()
	repo.byBank = []offer.Offer{
		{OfferID: "O1", OfferText: "Get ₹100 cashback"},
		{OfferID: "O2", OfferText: "Get 5% cashback", OfferDescription: "up to ₹500"},
	}
	h := newTestHandler(repo)

	rec := doRequest(t, h, http.MethodGet, "/highest-discount?amountToPay=5000&bankName=AXIS", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[highestDiscountResponse](t, rec)
	assert.InDelta(t, 250.0, got.HighestDiscountAmount, 1e-9)
}

func TestHighestDiscount_NoOffers(t *testing.T) {
	h := newTestHandler(newMockRepo())

	rec := doRequest(t, h, http.MethodGet, "/highest-discount?amountToPay=5000&bankName=AXIS&paymentInstrument=CREDIT", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[highestDiscountResponse](t, rec)
	assert.Zero(t, got.HighestDiscountAmount)
}

func TestHighestDiscount_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "missing amount", target: "/highest-discount?bankName=AXIS"},
		{name: "missing bank", target: "/highest-discount?amountToPay=5000"},
		{name: "non-numeric amount", target: "/highest-discount?amountToPay=abc&bankName=AXIS"},
		{name: "negative amount", target: "/highest-discount?amountToPay=-5&bankName=AXIS"},
	}

	h := newTestHandler(newMockRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHighestDiscount_RepositoryError(t *testing.T) {
	repo := newMockRepo()
	repo.findErr = errors.New("db down")
	h := newTestHandler(repo)

	rec := doRequest(t, h, http.MethodGet, "/highest-discount?amountToPay=5000&bankName=AXIS", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	got := decodeBody[errorResponse](t, rec)
	assert.Equal(t, http.StatusInternalServerError, got.Code)
}

func TestListOffers(t *testing.T) {
	repo := newMockRepo()
	repo.byBank = []offer.Offer{
		{OfferID: "A", OfferText: "t1", BankCodes: []string{"AXIS"}, Instruments: []string{"CREDIT"}},
		{OfferID: "B", OfferText: "t2"},
		{OfferID: "C", OfferText: "t3"},
	}
	h := newTestHandler(repo)

	rec := doRequest(t, h, http.MethodGet, "/offers?skip=0&limit=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[listOffersResponse](t, rec)
	assert.Equal(t, 2, got.Total)
	require.Len(t, got.Offers, 2)
	assert.Equal(t, "A", got.Offers[0].OfferID)
	assert.Equal(t, []string{"AXIS"}, got.Offers[0].Banks)
	assert.Equal(t, []string{}, got.Offers[1].Banks, "nil slices serialize as empty arrays")
}

func TestListOffers_Defaults(t *testing.T) {
	repo := newMockRepo()
	repo.byBank = []offer.Offer{{OfferID: "A"}}
	h := newTestHandler(repo)

	rec := doRequest(t, h, http.MethodGet, "/offers", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[listOffersResponse](t, rec)
	assert.Equal(t, 1, got.Total)
}

func TestListOffers_BadPagination(t *testing.T) {
	h := newTestHandler(newMockRepo())

	for _, target := range []string{"/offers?skip=-1", "/offers?limit=-1", "/offers?skip=abc"} {
		rec := doRequest(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestDeleteOffers(t *testing.T) {
	repo := newMockRepo()
	repo.deleted = 4
	h := newTestHandler(repo)

	rec := doRequest(t, h, http.MethodDelete, "/offers", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[messageResponse](t, rec)
	assert.Equal(t, "4 offers deleted", got.Message)
}

func TestRoot(t *testing.T) {
	h := newTestHandler(newMockRepo())

	rec := doRequest(t, h, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "running", got["status"])
}
