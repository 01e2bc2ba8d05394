package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// TxQuerier is implemented by both pgxpool.Pool and pgx.Tx.
// Repository methods that need transaction support should accept TxQuerier.
type TxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewPool creates a PostgreSQL connection pool with retry logic.
// Retries with exponential backoff: 1s, 2s, 4s, 8s, 16s (total ~31s before failure).
func NewPool(ctx context.Context, dsn string, maxRetries int) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Ensure at least one attempt even if maxRetries is 0
	attempts := maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		pool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			// Verify connection actually works
			if pingErr := pool.Ping(ctx); pingErr == nil {
				log.Info().Msg("database connection established")
				return pool, nil
			} else {
				pool.Close()
				err = fmt.Errorf("ping failed: %w", pingErr)
			}
		}

		backoff := time.Duration(1<<attempt) * time.Second
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("next_retry_in", backoff).
			Msg("database connection failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

// ReceiptsSchema creates the local receipt ledger.
const ReceiptsSchema = `
	CREATE TABLE IF NOT EXISTS booking_receipts (
		booking_id VARCHAR(255) PRIMARY KEY,
		court_id VARCHAR(255) NOT NULL,
		venue_name VARCHAR(255) NOT NULL DEFAULT '',
		booking_date DATE NOT NULL,
		start_time VARCHAR(5) NOT NULL,
		number_of_players INTEGER NOT NULL CHECK (number_of_players >= 1),
		price_per_hour NUMERIC(10, 2) NOT NULL CHECK (price_per_hour >= 0),
		subtotal INTEGER NOT NULL CHECK (subtotal >= 0),
		total INTEGER NOT NULL CHECK (total >= 0 AND total <= subtotal),
		coupon_code VARCHAR(64),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_booking_receipts_created_at ON booking_receipts(created_at DESC);
`

// Execer is the subset of TxQuerier needed to run DDL.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the tables the service writes to if they are missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, ReceiptsSchema); err != nil {
		return fmt.Errorf("ensure receipts schema: %w", err)
	}
	log.Info().Msg("database schema ready")
	return nil
}
