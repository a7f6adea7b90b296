// Command offer-ingest backfills the offer store from a directory of
// captured payment-page payload dumps (*.json, optionally gzipped).
package main

import (
	"context"
	"flag"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/document"
	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/domain/offer"
	"github.com/Atul-0515/AtulKumar-PiePay-Backend/internal/repository"
)

const (
	// bloomCapacity sizes the in-run dedupe filter. The database's unique
	// constraint remains the source of truth, so a false positive only
	// costs one skipped insert in a backfill run.
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
)

func main() {
	var (
		dataDir     string
		databaseURL string
		workers     int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing payload dumps (*.json, *.json.gz)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 4, "number of files parsed concurrently")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, workers); err != nil {
		slog.Error("offer ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("offer ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, workers int) error {
	files, err := collectPayloadFiles(dataDir)
	if err != nil {
		return errors.Wrap(err, "collect payload files")
	}
	if len(files) == 0 {
		slog.Info("no payload files found", slog.String("dir", dataDir))
		return nil
	}
	slog.Info("found payload files", slog.Int("count", len(files)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	repo := repository.NewOfferRepository(pool)

	// Offer ids already queued in this run; skips re-submitting the same
	// offer when it appears in many captures.
	var (
		filterMu sync.Mutex
		filter   = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	)

	var totalIdentified, totalCreated, totalFiles atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range files {
		g.Go(func() error {
			offers, err := parsePayloadFile(path)
			if err != nil {
				return errors.Wrapf(err, "parse %s", path)
			}

			filterMu.Lock()
			fresh := offers[:0]
			for _, o := range offers {
				if filter.TestAndAddString(o.OfferID) {
					continue
				}
				fresh = append(fresh, o)
			}
			filterMu.Unlock()

			created := 0
			if len(fresh) > 0 {
				created, err = repo.CreateBatch(ctx, fresh)
				if err != nil {
					return errors.Wrapf(err, "store offers from %s", path)
				}
			}

			totalFiles.Add(1)
			totalIdentified.Add(int64(len(offers)))
			totalCreated.Add(int64(created))

			slog.Info("file ingested",
				slog.String("file", filepath.Base(path)),
				slog.Int("identified", len(offers)),
				slog.Int("created", created),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("ingest summary",
		slog.Int64("files", totalFiles.Load()),
		slog.Int64("offers_identified", totalIdentified.Load()),
		slog.Int64("offers_created", totalCreated.Load()),
	)
	return nil
}

// collectPayloadFiles walks dir for payload dumps, sorted by path.
func collectPayloadFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".json.gz") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// parsePayloadFile reads one payload dump (gunzipping when needed) and
// normalizes its offers.
func parsePayloadFile(path string) ([]offer.Offer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc, err := document.Decode(data)
	if err != nil {
		return nil, err
	}

	// Dumps may carry either the raw payment-page payload or the API's
	// request envelope; unwrap the envelope when present.
	if wrapped := document.Get(doc, "flipkartOfferApiResponse"); document.Object(wrapped) != nil {
		doc = wrapped
	}

	return offer.ParseResponse(doc), nil
}
