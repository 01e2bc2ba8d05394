package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
	"github.com/fairyhunter13/court-booking-flow/pkg/database"
)

// DefaultReceiptLimit caps List when no limit is given.
const DefaultReceiptLimit = 50

// ReceiptRepository stores the price breakdown of confirmed bookings.
type ReceiptRepository struct {
	db database.TxQuerier
}

// NewReceiptRepository creates a new ReceiptRepository with the given pool.
func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{db: pool}
}

// NewReceiptRepositoryWithDB creates a ReceiptRepository on any querier.
// This is primarily used for testing.
func NewReceiptRepositoryWithDB(db database.TxQuerier) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Insert records a receipt. Recording the same booking twice keeps the first row.
func (r *ReceiptRepository) Insert(ctx context.Context, receipt model.Receipt) error {
	query := `INSERT INTO booking_receipts
		(booking_id, court_id, venue_name, booking_date, start_time, number_of_players,
		 price_per_hour, subtotal, total, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
		ON CONFLICT (booking_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		receipt.BookingID,
		receipt.CourtID,
		receipt.VenueName,
		receipt.BookingDate,
		receipt.StartTime,
		receipt.NumberOfPlayers,
		receipt.PricePerHour,
		receipt.Subtotal,
		receipt.Total,
		receipt.CouponCode,
		receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert receipt %s: %w", receipt.BookingID, err)
	}
	return nil
}

// List returns the most recent receipts, newest first. On success it returns
// an empty slice (not nil) when there are none.
func (r *ReceiptRepository) List(ctx context.Context, limit int) ([]model.Receipt, error) {
	if limit <= 0 {
		limit = DefaultReceiptLimit
	}
	query := `SELECT booking_id, court_id, venue_name, to_char(booking_date, 'YYYY-MM-DD'), start_time,
		number_of_players, price_per_hour::float8, subtotal, total, COALESCE(coupon_code, ''), created_at
		FROM booking_receipts ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	receipts := []model.Receipt{}
	for rows.Next() {
		var rc model.Receipt
		if err := rows.Scan(
			&rc.BookingID,
			&rc.CourtID,
			&rc.VenueName,
			&rc.BookingDate,
			&rc.StartTime,
			&rc.NumberOfPlayers,
			&rc.PricePerHour,
			&rc.Subtotal,
			&rc.Total,
			&rc.CouponCode,
			&rc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipt rows: %w", err)
	}
	return receipts, nil
}
