package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/restaurant-mis/internal/storage"
)

const (
	loadDocumentSQL = `SELECT value FROM kv_store WHERE key = $1`

	saveDocumentSQL = `INSERT INTO kv_store (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	sumOrderTotalsSQL = `SELECT COALESCE(SUM((o->>'total')::numeric), 0)
	FROM kv_store, jsonb_array_elements(value) AS o
	WHERE key = $1
		AND o->>'status' = $2
		AND ($3::timestamptz IS NULL OR (o->>'date')::timestamptz >= $3)
		AND ($4::timestamptz IS NULL OR (o->>'date')::timestamptz <= $4)`
)

var (
	_ storage.Port   = (*Store)(nil)
	_ storage.Pinger = (*Store)(nil)

	_ storage.SalesTotaler = (*Store)(nil)
)

// Store implements storage.Port on a JSONB key/value table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store that uses the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Load returns the document stored under key, or nil when the key is absent.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, loadDocumentSQL, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading %q: %w", key, err)
	}
	return data, nil
}

// Save upserts the document under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, saveDocumentSQL, key, data); err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}
	return nil
}

// SumOrderTotals sums the totals of stored orders with status, dated within
// the optional inclusive bounds. NUMERIC is scanned through the decimal codec
// registered by NewPool.
func (s *Store) SumOrderTotals(ctx context.Context, status string, start, end *time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.pool.QueryRow(ctx, sumOrderTotalsSQL, storage.OrdersKey, status, start, end).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing order totals: %w", err)
	}
	return sum, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
