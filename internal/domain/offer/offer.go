// Package offer holds the core of the discount backend: normalizing offers
// out of upstream payment-page payloads, interpreting their free-form
// discount text, and the service orchestrating both over the store.
package offer

import (
	"context"
)

// Offer is the normalized in-memory form of one offer extracted from an
// upstream payment-page payload.
type Offer struct {
	// OfferID is the upstream identifier; unique across ingestions.
	OfferID string `json:"offer_id"`
	// OfferText is the short marketing string, e.g. "Get ₹100 cashback".
	OfferText string `json:"offer_text"`
	// OfferDescription is the full terms string; minimum-order and cap
	// clauses are parsed out of it.
	OfferDescription string `json:"offer_description"`
	// Logo is an optional asset reference.
	Logo string `json:"logo"`
	// BankCodes lists the banks the offer is restricted to. Empty means
	// not bank-restricted (e.g. UPI-only offers).
	BankCodes []string `json:"bank_codes"`
	// Instruments lists applicable payment instrument types. Populated
	// only for bank-restricted offers, from instruments discovered
	// anywhere in the same payload.
	Instruments []string `json:"payment_instruments"`
}

// Repository defines persistence operations for offers and their bank and
// payment-instrument associations.
type Repository interface {
	// CreateBatch stores the given offers in a single transaction,
	// skipping offers whose OfferID already exists, and returns the
	// number actually inserted.
	CreateBatch(ctx context.Context, offers []Offer) (int, error)
	FindByBank(ctx context.Context, bankCode string) ([]Offer, error)
	FindByBankAndInstrument(ctx context.Context, bankCode, instrumentType string) ([]Offer, error)
	List(ctx context.Context, skip, limit int) ([]Offer, error)
	// DeleteAll removes every stored offer (associations cascade) and
	// returns the number of offers deleted.
	DeleteAll(ctx context.Context) (int64, error)
}
