//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// ingestPayload mirrors the standard upstream payment-page shape: one
// OFFER_LIST item with two offers plus one PAYMENT_OPTION item.
var ingestPayload = map[string]any{
	"flipkartOfferApiResponse": map[string]any{
		"pageData": map[string]any{
			"paymentOptions": map[string]any{
				"items": []any{
					map[string]any{
						"type": "OFFER_LIST",
						"data": map[string]any{
							"offers": map[string]any{
								"offerList": []any{
									map[string]any{
										"provider":  []any{"AXIS"},
										"offerText": map[string]any{"text": "Get ₹100 cashback"},
										"offerDescription": map[string]any{
											"id":   "INT001",
											"text": "Flat ₹100 cashback. Min Order ₹5000",
										},
									},
									map[string]any{
										"provider":  []any{"AXIS", "HDFC"},
										"offerText": map[string]any{"text": "Get 5% cashback"},
										"offerDescription": map[string]any{
											"id":   "INT002",
											"text": "5% cashback up to ₹500",
										},
									},
								},
							},
						},
					},
					map[string]any{
						"type": "PAYMENT_OPTION",
						"data": map[string]any{"instrumentType": "CREDIT"},
					},
				},
			},
		},
	},
}

func resetStore(t *testing.T) {
	t.Helper()

	resp := doDelete(t, "/offers")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset store: status %d", resp.StatusCode)
	}
}

func ingest(t *testing.T) offerResponse {
	t.Helper()

	resp := doPost(t, "/offer", ingestPayload)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest: status %d", resp.StatusCode)
	}
	return decodeJSON[offerResponse](t, resp)
}

func TestIngestAndQueryFlow(t *testing.T) {
	resetStore(t)

	// First ingest creates both offers.
	got := ingest(t)
	if got.NoOfOffersIdentified != 2 {
		t.Errorf("identified: got %d, want 2", got.NoOfOffersIdentified)
	}
	if got.NoOfNewOffersCreated != 2 {
		t.Errorf("created: got %d, want 2", got.NoOfNewOffersCreated)
	}

	// Re-ingest identifies both but creates none.
	again := ingest(t)
	if again.NoOfOffersIdentified != 2 {
		t.Errorf("re-ingest identified: got %d, want 2", again.NoOfOffersIdentified)
	}
	if again.NoOfNewOffersCreated != 0 {
		t.Errorf("re-ingest created: got %d, want 0", again.NoOfNewOffersCreated)
	}

	// 5% of 20000 would be 1000, capped at 500; flat ₹100 loses.
	resp := doGet(t, "/highest-discount?amountToPay=20000&bankName=AXIS")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("highest-discount: status %d", resp.StatusCode)
	}
	discount := decodeJSON[highestDiscountResponse](t, resp)
	if discount.HighestDiscountAmount != 500 {
		t.Errorf("discount: got %v, want 500", discount.HighestDiscountAmount)
	}
}

func TestHighestDiscount_MinOrderGate(t *testing.T) {
	resetStore(t)
	ingest(t)

	// Below the ₹5000 minimum the flat offer is out; 5% of 3000 = 150.
	resp := doGet(t, "/highest-discount?amountToPay=3000&bankName=AXIS")
	defer resp.Body.Close()
	discount := decodeJSON[highestDiscountResponse](t, resp)
	if discount.HighestDiscountAmount != 150 {
		t.Errorf("discount: got %v, want 150", discount.HighestDiscountAmount)
	}
}

func TestHighestDiscount_UnknownBank(t *testing.T) {
	resetStore(t)
	ingest(t)

	resp := doGet(t, "/highest-discount?amountToPay=10000&bankName=NOSUCH")
	defer resp.Body.Close()
	discount := decodeJSON[highestDiscountResponse](t, resp)
	if discount.HighestDiscountAmount != 0 {
		t.Errorf("discount: got %v, want 0", discount.HighestDiscountAmount)
	}
}

func TestHighestDiscount_InstrumentFilter(t *testing.T) {
	resetStore(t)
	ingest(t)

	resp := doGet(t, "/highest-discount?amountToPay=20000&bankName=HDFC&paymentInstrument=CREDIT")
	defer resp.Body.Close()
	discount := decodeJSON[highestDiscountResponse](t, resp)
	if discount.HighestDiscountAmount != 500 {
		t.Errorf("discount: got %v, want 500", discount.HighestDiscountAmount)
	}

	resp2 := doGet(t, "/highest-discount?amountToPay=20000&bankName=HDFC&paymentInstrument=NETBANKING")
	defer resp2.Body.Close()
	discount2 := decodeJSON[highestDiscountResponse](t, resp2)
	if discount2.HighestDiscountAmount != 0 {
		t.Errorf("filtered discount: got %v, want 0", discount2.HighestDiscountAmount)
	}
}

func TestHighestDiscount_BadRequests(t *testing.T) {
	for _, path := range []string{
		"/highest-discount?bankName=AXIS",
		"/highest-discount?amountToPay=5000",
		"/highest-discount?amountToPay=abc&bankName=AXIS",
	} {
		resp := doGet(t, path)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", path, resp.StatusCode)
		}
		body := decodeJSON[errorResponse](t, resp)
		resp.Body.Close()
		if body.Code != http.StatusBadRequest {
			t.Errorf("%s: body code %d, want 400", path, body.Code)
		}
	}
}

func TestListOffers(t *testing.T) {
	resetStore(t)
	ingest(t)

	resp := doGet(t, "/offers")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}

	list := decodeJSON[listOffersResponse](t, resp)
	if list.Total != 2 {
		t.Fatalf("total: got %d, want 2", list.Total)
	}

	byID := make(map[string]listedOffer, len(list.Offers))
	for _, o := range list.Offers {
		byID[o.OfferID] = o
	}

	first, ok := byID["INT001"]
	if !ok {
		t.Fatal("INT001 missing from listing")
	}
	if len(first.Banks) != 1 || first.Banks[0] != "AXIS" {
		t.Errorf("INT001 banks: got %v", first.Banks)
	}
	if len(first.Instruments) != 1 || first.Instruments[0] != "CREDIT" {
		t.Errorf("INT001 instruments: got %v", first.Instruments)
	}

	second, ok := byID["INT002"]
	if !ok {
		t.Fatal("INT002 missing from listing")
	}
	if len(second.Banks) != 2 {
		t.Errorf("INT002 banks: got %v", second.Banks)
	}
}

func TestListOffers_Pagination(t *testing.T) {
	resetStore(t)
	ingest(t)

	resp := doGet(t, "/offers?skip=1&limit=1")
	defer resp.Body.Close()
	list := decodeJSON[listOffersResponse](t, resp)
	if list.Total != 1 {
		t.Errorf("total: got %d, want 1", list.Total)
	}
}

func TestDeleteOffers(t *testing.T) {
	resetStore(t)
	ingest(t)

	resp := doDelete(t, "/offers")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	msg := decodeJSON[messageResponse](t, resp)
	if msg.Message == "" {
		t.Error("empty delete message")
	}

	listResp := doGet(t, "/offers")
	defer listResp.Body.Close()
	list := decodeJSON[listOffersResponse](t, listResp)
	if list.Total != 0 {
		t.Errorf("total after delete: got %d, want 0", list.Total)
	}
}

func TestIngest_BadRequests(t *testing.T) {
	for name, body := range map[string]string{
		"invalid JSON":    `{"flipkartOfferApiResponse": `,
		"missing wrapper": `{"foo": 1}`,
	} {
		resp := doPostRaw(t, "/offer", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestRootBanner(t *testing.T) {
	resp := doGet(t, "/")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("root: status %d", resp.StatusCode)
	}
}
