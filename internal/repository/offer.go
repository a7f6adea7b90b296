package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/domain/offer"
)

const (
	// Insert-or-skip: an existing offer row is never mutated on re-ingest.
	// RETURNING only yields a row for a fresh insert, so a conflict surfaces
	// as pgx.ErrNoRows.
	insertOfferSQL = `INSERT INTO offers (offer_id, offer_text, offer_description, logo)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (offer_id) DO NOTHING
		RETURNING id`

	// Upsert-read: DO UPDATE makes RETURNING yield the id for both the
	// insert and the conflict case.
	upsertBankSQL = `INSERT INTO banks (bank_code) VALUES ($1)
		ON CONFLICT (bank_code) DO UPDATE SET bank_code = EXCLUDED.bank_code
		RETURNING id`

	upsertInstrumentSQL = `INSERT INTO payment_instruments (instrument_type) VALUES ($1)
		ON CONFLICT (instrument_type) DO UPDATE SET instrument_type = EXCLUDED.instrument_type
		RETURNING id`

	linkBankSQL = `INSERT INTO offer_banks (offer_id, bank_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	linkInstrumentSQL = `INSERT INTO offer_payment_instruments (offer_id, instrument_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	selectOfferColumns = `SELECT o.offer_id, o.offer_text, o.offer_description, o.logo,
		(SELECT COALESCE(array_agg(b.bank_code ORDER BY b.bank_code), '{}')
			FROM offer_banks ob JOIN banks b ON b.id = ob.bank_id
			WHERE ob.offer_id = o.id),
		(SELECT COALESCE(array_agg(pi.instrument_type ORDER BY pi.instrument_type), '{}')
			FROM offer_payment_instruments opi JOIN payment_instruments pi ON pi.id = opi.instrument_id
			WHERE opi.offer_id = o.id)
	FROM offers o`

	findByBankSQL = selectOfferColumns + `
	WHERE EXISTS (
		SELECT 1 FROM offer_banks ob JOIN banks b ON b.id = ob.bank_id
		WHERE ob.offer_id = o.id AND b.bank_code = $1)
	ORDER BY o.id`

	findByBankAndInstrumentSQL = selectOfferColumns + `
	WHERE EXISTS (
		SELECT 1 FROM offer_banks ob JOIN banks b ON b.id = ob.bank_id
		WHERE ob.offer_id = o.id AND b.bank_code = $1)
	AND EXISTS (
		SELECT 1 FROM offer_payment_instruments opi JOIN payment_instruments pi ON pi.id = opi.instrument_id
		WHERE opi.offer_id = o.id AND pi.instrument_type = $2)
	ORDER BY o.id`

	listOffersSQL = selectOfferColumns + `
	ORDER BY o.id OFFSET $1 LIMIT $2`

	deleteAllOffersSQL = `DELETE FROM offers`
)

var _ offer.Repository = (*OfferRepository)(nil)

// OfferRepository implements offer.Repository backed by PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// CreateBatch stores the given offers in one transaction, get-or-creating
// banks and payment instruments by their unique codes and skipping offers
// already present. It returns the number of offers actually inserted. The
// single transaction keeps the created count consistent with what was
// committed: a failure partway through persists nothing.
func (r *OfferRepository) CreateBatch(ctx context.Context, offers []offer.Offer) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning offer batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := 0
	for _, o := range offers {
		inserted, err := createOffer(ctx, tx, o)
		if err != nil {
			return 0, fmt.Errorf("creating offer %q: %w", o.OfferID, err)
		}
		if inserted {
			created++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing offer batch: %w", err)
	}
	return created, nil
}

func createOffer(ctx context.Context, tx pgx.Tx, o offer.Offer) (bool, error) {
	var offerID int64
	err := tx.QueryRow(ctx, insertOfferSQL,
		o.OfferID, o.OfferText, o.OfferDescription, o.Logo,
	).Scan(&offerID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already stored; leave it untouched.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, code := range o.BankCodes {
		var bankID int64
		if err := tx.QueryRow(ctx, upsertBankSQL, code).Scan(&bankID); err != nil {
			return false, fmt.Errorf("upserting bank %q: %w", code, err)
		}
		if _, err := tx.Exec(ctx, linkBankSQL, offerID, bankID); err != nil {
			return false, fmt.Errorf("linking bank %q: %w", code, err)
		}
	}

	for _, instrument := range o.Instruments {
		var instrumentID int64
		if err := tx.QueryRow(ctx, upsertInstrumentSQL, instrument).Scan(&instrumentID); err != nil {
			return false, fmt.Errorf("upserting instrument %q: %w", instrument, err)
		}
		if _, err := tx.Exec(ctx, linkInstrumentSQL, offerID, instrumentID); err != nil {
			return false, fmt.Errorf("linking instrument %q: %w", instrument, err)
		}
	}

	return true, nil
}

// FindByBank returns all offers applicable to the given bank code.
func (r *OfferRepository) FindByBank(ctx context.Context, bankCode string) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, findByBankSQL, bankCode)
	if err != nil {
		return nil, fmt.Errorf("finding offers for bank %q: %w", bankCode, err)
	}
	return pgx.CollectRows(rows, scanOffer)
}

// FindByBankAndInstrument returns all offers applicable to the given bank
// code and payment instrument type.
func (r *OfferRepository) FindByBankAndInstrument(ctx context.Context, bankCode, instrumentType string) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, findByBankAndInstrumentSQL, bankCode, instrumentType)
	if err != nil {
		return nil, fmt.Errorf("finding offers for bank %q instrument %q: %w", bankCode, instrumentType, err)
	}
	return pgx.CollectRows(rows, scanOffer)
}

// List returns stored offers ordered by insertion, with pagination.
func (r *OfferRepository) List(ctx context.Context, skip, limit int) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, listOffersSQL, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	return pgx.CollectRows(rows, scanOffer)
}

// DeleteAll removes every offer; join rows cascade, while the bank and
// instrument catalogs survive. Returns the number of offers deleted.
func (r *OfferRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteAllOffersSQL)
	if err != nil {
		return 0, fmt.Errorf("deleting offers: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOffer(row pgx.CollectableRow) (offer.Offer, error) {
	var o offer.Offer
	err := row.Scan(
		&o.OfferID, &o.OfferText, &o.OfferDescription, &o.Logo,
		&o.BankCodes, &o.Instruments,
	)
	return o, err
}
