// Command storage-import merges exported browser storage dumps into the
// MIS store, keeping order numbers and statuses.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/feedback"
	"github.com/xenking/restaurant-mis/internal/domain/order"
	"github.com/xenking/restaurant-mis/internal/storage"
	"github.com/xenking/restaurant-mis/internal/storage/file"
	"github.com/xenking/restaurant-mis/internal/storage/postgres"
)

func main() {
	var (
		dumpDir     string
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dumpDir, "dump-dir", "dumps", "directory containing *.json or *.json.gz storage dumps")
	flag.StringVar(&dataDir, "data-dir", "data", "file storage directory to import into")
	flag.StringVar(&databaseURL, "database-url", "", "import into PostgreSQL instead (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dumpDir, dataDir, databaseURL); err != nil {
		slog.Error("storage import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage import completed successfully")
}

func run(ctx context.Context, dumpDir, dataDir, databaseURL string) error {
	paths, err := dumpFiles(dumpDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		slog.Info("no dumps to import", slog.String("dir", dumpDir))
		return nil
	}

	dumps, err := readDumps(ctx, paths)
	if err != nil {
		return errors.Wrap(err, "read dumps")
	}
	orders, feedbacks, dupes := dedupe(dumps)
	slog.Info("dumps merged",
		slog.Int("files", len(paths)),
		slog.Int("orders", len(orders)),
		slog.Int("feedbacks", len(feedbacks)),
		slog.Int("duplicates", dupes),
	)

	port, closeFn, err := openTarget(ctx, dataDir, databaseURL)
	if err != nil {
		return err
	}
	defer closeFn()

	return importAll(ctx, port, orders, feedbacks)
}

func importAll(ctx context.Context, port storage.Port, orders []order.Order, feedbacks []feedback.Feedback) error {
	storedOrders, storedFeedbacks, err := loadStored(ctx, port)
	if err != nil {
		return err
	}
	orders, presentOrders := filterNew(storedOrders, orders, orderID)
	feedbacks, presentFeedbacks := filterNew(storedFeedbacks, feedbacks, feedbackID)
	slog.Info("screened against store",
		slog.Int("new_orders", len(orders)),
		slog.Int("new_feedbacks", len(feedbacks)),
		slog.Int("already_stored", presentOrders+presentFeedbacks),
	)

	lg := zap.NewNop()
	var addedOrders, addedFeedbacks int
	if len(orders) > 0 {
		if addedOrders, err = order.NewRepository(port, lg).Merge(ctx, orders); err != nil {
			return errors.Wrap(err, "merge orders")
		}
	}
	if len(feedbacks) > 0 {
		if addedFeedbacks, err = feedback.NewRepository(port, lg).Merge(ctx, feedbacks); err != nil {
			return errors.Wrap(err, "merge feedbacks")
		}
	}
	slog.Info("imported",
		slog.Int("orders", addedOrders),
		slog.Int("feedbacks", addedFeedbacks),
	)
	return nil
}

// loadStored reads the collections already in the target store.
func loadStored(ctx context.Context, port storage.Port) ([]order.Order, []feedback.Feedback, error) {
	data, err := port.Load(ctx, storage.OrdersKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load stored orders")
	}
	orders, err := order.Unmarshal(data)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse stored orders")
	}
	data, err = port.Load(ctx, storage.FeedbacksKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load stored feedbacks")
	}
	feedbacks, err := feedback.Unmarshal(data)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse stored feedbacks")
	}
	return orders, feedbacks, nil
}

func dumpFiles(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.json", "*.json.gz"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "list %s", pattern)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return paths, nil
}

func openTarget(ctx context.Context, dataDir, databaseURL string) (storage.Port, func(), error) {
	if databaseURL == "" {
		slog.Info("importing into file storage", slog.String("dir", dataDir))
		store, err := file.New(dataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to database")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}
	return postgres.NewStore(pool), pool.Close, nil
}
