package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/document"
)

// maxPayloadBytes bounds the ingested payload size. Real payment-page dumps
// run to a few hundred KB; 10 MB leaves ample headroom.
const maxPayloadBytes = 10 << 20

// payloadWrapperKey is the request-body key holding the upstream response.
const payloadWrapperKey = "flipkartOfferApiResponse"

type offerResponse struct {
	NoOfOffersIdentified int `json:"noOfOffersIdentified"`
	NoOfNewOffersCreated int `json:"noOfNewOffersCreated"`
}

type highestDiscountResponse struct {
	HighestDiscountAmount float64 `json:"highestDiscountAmount"`
}

type listedOffer struct {
	OfferID     string   `json:"offer_id"`
	OfferText   string   `json:"offer_text"`
	Banks       []string `json:"banks"`
	Instruments []string `json:"payment_instruments"`
}

type listOffersResponse struct {
	Total  int           `json:"total"`
	Offers []listedOffer `json:"offers"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Root serves a service banner with the endpoint map.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to PiePay Backend API",
		"status":  "running",
		"endpoints": map[string]string{
			"POST /offer":           "Store offers from an upstream payment-page payload",
			"GET /highest-discount": "Calculate the highest discount for payment details",
			"GET /offers":           "List stored offers",
			"DELETE /offers":        "Delete all stored offers",
		},
	})
}

// CreateOffers ingests an upstream payload wrapped in a
// flipkartOfferApiResponse envelope and reports how many offers were
// identified and newly created.
func (h *Handler) CreateOffers(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	doc, err := document.Decode(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	payload := document.Get(doc, payloadWrapperKey)
	if document.Object(payload) == nil {
		respondError(w, http.StatusBadRequest, "missing flipkartOfferApiResponse object")
		return
	}

	identified, created, err := h.offers.Ingest(r.Context(), payload)
	if err != nil {
		zctx.From(r.Context()).Error("ingest offers", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "error processing offers")
		return
	}

	respondJSON(w, http.StatusOK, offerResponse{
		NoOfOffersIdentified: identified,
		NoOfNewOffersCreated: created,
	})
}

// HighestDiscount answers the best-discount query for an amount, bank, and
// optional payment instrument.
func (h *Handler) HighestDiscount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amountRaw := q.Get("amountToPay")
	if amountRaw == "" {
		respondError(w, http.StatusBadRequest, "amountToPay is required")
		return
	}
	amount, err := decimal.NewFromString(amountRaw)
	if err != nil || amount.IsNegative() {
		respondError(w, http.StatusBadRequest, "amountToPay must be a non-negative number")
		return
	}

	bankName := q.Get("bankName")
	if bankName == "" {
		respondError(w, http.StatusBadRequest, "bankName is required")
		return
	}

	best, err := h.offers.HighestDiscount(r.Context(), amount, bankName, q.Get("paymentInstrument"))
	if err != nil {
		zctx.From(r.Context()).Error("highest discount", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "error calculating discount")
		return
	}

	respondJSON(w, http.StatusOK, highestDiscountResponse{
		HighestDiscountAmount: best.InexactFloat64(),
	})
}

// ListOffers returns stored offers with skip/limit pagination.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	skip, ok := queryInt(w, r, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 100)
	if !ok {
		return
	}

	offers, err := h.offers.List(r.Context(), skip, limit)
	if err != nil {
		zctx.From(r.Context()).Error("list offers", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "error listing offers")
		return
	}

	listed := make([]listedOffer, len(offers))
	for i, o := range offers {
		listed[i] = listedOffer{
			OfferID:     o.OfferID,
			OfferText:   o.OfferText,
			Banks:       emptyIfNil(o.BankCodes),
			Instruments: emptyIfNil(o.Instruments),
		}
	}

	respondJSON(w, http.StatusOK, listOffersResponse{
		Total:  len(listed),
		Offers: listed,
	})
}

// DeleteOffers removes every stored offer.
func (h *Handler) DeleteOffers(w http.ResponseWriter, r *http.Request) {
	count, err := h.offers.Reset(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("delete offers", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "error deleting offers")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{
		Message: strconv.FormatInt(count, 10) + " offers deleted",
	})
}

// queryInt parses an optional non-negative integer query parameter, writing
// a 400 response and returning ok=false on invalid input.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
