// Command seed-db registers a back-office API key. With -database-url it
// upserts the key into PostgreSQL; with -print-hash it prints the hash to
// list under admin_key_hashes for file or memory storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/restaurant-mis/internal/domain/auth"
	"github.com/xenking/restaurant-mis/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
		keyID        string
		keyName      string
		printHash    bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or MIS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or MIS_API_KEY_PEPPER env)")
	flag.StringVar(&keyID, "key-id", "default", "API key ID")
	flag.StringVar(&keyName, "key-name", "Back office", "API key display name")
	flag.BoolVar(&printHash, "print-hash", false, "print the key hash instead of storing it")
	flag.Parse()

	if apiKey == "" {
		apiKey = os.Getenv("MIS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or MIS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("MIS_API_KEY_PEPPER")
	}
	if apiKeyPepper == "" {
		slog.Error("API key pepper is required: set --api-key-pepper or MIS_API_KEY_PEPPER")
		os.Exit(1)
	}

	info := auth.APIKeyInfo{
		ID:      keyID,
		KeyHash: auth.HashKey([]byte(apiKeyPepper), apiKey),
		Name:    keyName,
		Scopes:  []string{"admin"},
	}
	if printHash {
		fmt.Println(info.KeyHash)
		return
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, info); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, info auth.APIKeyInfo) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.NewAPIKeyRepository(pool).Upsert(ctx, info); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	slog.Info("upserted API key", slog.String("id", info.ID), slog.String("name", info.Name))

	return nil
}
