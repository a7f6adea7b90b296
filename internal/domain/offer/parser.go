package offer

import (
	"maps"
	"slices"

	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/document"
)

// Item type tags used by the upstream payment page.
const (
	typeOfferList     = "OFFER_LIST"
	typePaymentOption = "PAYMENT_OPTION"
)

// itemPaths are the known locations of the payment-page items list, tried in
// order, deepest known shape first. The same order is used for instrument
// discovery and offer discovery.
var itemPaths = []document.Path{
	{"pageData", "paymentOptions", "items"},
	{"paymentOptions", "items"},
	{"items"},
}

// offerListPaths are the known locations of the offer list inside one
// OFFER_LIST item, each one level shallower than the last.
var offerListPaths = []document.Path{
	{"data", "offers", "offerList"},
	{"data", "offerList"},
	{"offers", "offerList"},
	{"offerList"},
}

// ParseResponse extracts normalized offers from a decoded payment-page
// payload. It is best-effort by contract: any unexpected document shape
// degrades to fewer (or zero) offers, never to a failure, and a malformed
// record never affects its siblings.
func ParseResponse(doc any) []Offer {
	instruments := extractInstruments(doc)

	items := document.FirstList(doc, itemPaths...)
	if len(items) == 0 {
		items = findOfferListItems(doc)
	}

	raw := extractOffers(items)

	offers := make([]Offer, 0, len(raw))
	for _, r := range raw {
		o, ok := parseOffer(r, instruments)
		if !ok {
			continue
		}
		offers = append(offers, o)
	}
	return offers
}

// extractInstruments collects the instrument types of every PAYMENT_OPTION
// item in the document's items list, deduplicated in first-seen order.
func extractInstruments(doc any) []string {
	items := document.FirstList(doc, itemPaths...)

	var found []string
	seen := make(map[string]struct{})
	for _, item := range items {
		obj := document.Object(item)
		if document.String(obj["type"]) != typePaymentOption {
			continue
		}
		instrument := document.FirstString(item,
			document.Path{"data", "instrumentType"},
			document.Path{"instrumentType"},
		)
		if instrument == "" {
			continue
		}
		if _, ok := seen[instrument]; ok {
			continue
		}
		seen[instrument] = struct{}{}
		found = append(found, instrument)
	}
	return found
}

// findOfferListItems is the structural fallback when none of the fixed item
// paths resolve: depth-first over the whole document, collecting every
// "items" list that contains at least one OFFER_LIST element. The entire
// sibling list is swept in, not just the OFFER_LIST elements; peers of other
// types ride along and are filtered out by extractOffers. Matches at every
// depth are collected. Keys are visited in sorted order so the result is
// deterministic.
func findOfferListItems(v any) []any {
	var out []any

	switch val := v.(type) {
	case map[string]any:
		if items := document.List(val["items"]); len(items) > 0 {
			for _, item := range items {
				if document.String(document.Get(item, "type")) == typeOfferList {
					out = append(out, items...)
					break
				}
			}
		}
		for _, key := range slices.Sorted(maps.Keys(val)) {
			out = append(out, findOfferListItems(val[key])...)
		}
	case []any:
		for _, item := range val {
			out = append(out, findOfferListItems(item)...)
		}
	}

	return out
}

// extractOffers keeps the OFFER_LIST items and concatenates each one's
// nested offer list, resolved through the shallowing path chain.
func extractOffers(items []any) []any {
	var offers []any
	for _, item := range items {
		obj := document.Object(item)
		if document.String(obj["type"]) != typeOfferList {
			continue
		}
		offers = append(offers, document.FirstList(item, offerListPaths...)...)
	}
	return offers
}

// parseOffer normalizes one raw offer record. Records without an id are
// dropped entirely. Every string field uses an ordered fallback chain that
// only a bare string can satisfy: an object-shaped offerDescription without
// a text key falls through to the next branch instead of leaking the object.
func parseOffer(raw any, instruments []string) (Offer, bool) {
	obj := document.Object(raw)
	if obj == nil {
		return Offer{}, false
	}

	id := document.FirstString(raw,
		document.Path{"offerDescription", "id"},
		document.Path{"id"},
		document.Path{"offerId"},
	)
	if id == "" {
		return Offer{}, false
	}

	o := Offer{
		OfferID: id,
		OfferText: document.FirstString(raw,
			document.Path{"offerText", "text"},
			document.Path{"offerText"},
			document.Path{"text"},
		),
		OfferDescription: document.FirstString(raw,
			document.Path{"offerDescription", "text"},
			document.Path{"description"},
			document.Path{"offerDescription"},
		),
		Logo: document.String(obj["logo"]),
	}

	for _, p := range document.List(obj["provider"]) {
		if code := document.String(p); code != "" {
			o.BankCodes = append(o.BankCodes, code)
		}
	}

	// Instrument applicability is inferred document-wide, not per offer:
	// every bank-restricted offer inherits the full instrument set found
	// anywhere in the payload.
	if len(o.BankCodes) > 0 && len(instruments) > 0 {
		o.Instruments = slices.Clone(instruments)
	}

	return o, true
}
