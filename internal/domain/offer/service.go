package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/cache"
)

// DefaultCacheTTL bounds how long per-bank offer lookups stay cached.
const DefaultCacheTTL = 5 * time.Minute

// Service orchestrates payload ingestion and discount queries over the
// repository, with a read-through cache on per-bank lookups. Cache failures
// degrade to the database and never fail a request.
type Service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewService creates an offer Service. A zero ttl means DefaultCacheTTL.
func NewService(repo Repository, c cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{repo: repo, cache: c, ttl: ttl}
}

// Ingest parses a decoded payment-page payload and stores the offers it
// finds. It returns how many offers the payload contained and how many were
// actually new; re-ingesting a known offer neither duplicates nor mutates it.
func (s *Service) Ingest(ctx context.Context, doc any) (identified, created int, err error) {
	offers := ParseResponse(doc)
	if len(offers) == 0 {
		return 0, 0, nil
	}

	created, err = s.repo.CreateBatch(ctx, offers)
	if err != nil {
		return 0, 0, errors.Wrap(err, "create offers")
	}

	if created > 0 {
		// Cached lookups are stale now; best effort.
		_ = s.cache.Clear(ctx)
	}

	return len(offers), created, nil
}

// HighestDiscount returns the best discount any stored offer yields for the
// given amount, bank, and optional payment instrument. No matching offers
// means zero.
func (s *Service) HighestDiscount(ctx context.Context, amountToPay decimal.Decimal, bankCode, instrumentType string) (decimal.Decimal, error) {
	offers, err := s.findOffers(ctx, bankCode, instrumentType)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "find offers")
	}

	best := decimal.Zero
	for _, o := range offers {
		discount := CalculateDiscount(o.OfferText, o.OfferDescription, amountToPay)
		if discount.GreaterThan(best) {
			best = discount
		}
	}
	return best, nil
}

// List returns stored offers with pagination.
func (s *Service) List(ctx context.Context, skip, limit int) ([]Offer, error) {
	return s.repo.List(ctx, skip, limit)
}

// Reset deletes every stored offer and returns the number removed.
func (s *Service) Reset(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "delete offers")
	}
	_ = s.cache.Clear(ctx)
	return count, nil
}

func (s *Service) findOffers(ctx context.Context, bankCode, instrumentType string) ([]Offer, error) {
	key := "offers:bank:" + bankCode
	if instrumentType != "" {
		key += ":instrument:" + instrumentType
	}

	var cached []Offer
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return cached, nil
	}

	var (
		offers []Offer
		err    error
	)
	if instrumentType != "" {
		offers, err = s.repo.FindByBankAndInstrument(ctx, bankCode, instrumentType)
	} else {
		offers, err = s.repo.FindByBank(ctx, bankCode)
	}
	if err != nil {
		return nil, err
	}

	_ = cache.SetJSON(ctx, s.cache, key, offers, s.ttl)
	return offers, nil
}
