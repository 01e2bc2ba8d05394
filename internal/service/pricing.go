package service

import (
	"fmt"
	"math"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

// PriceQuote is the price of a draft, derived on every read.
type PriceQuote struct {
	Subtotal   int    `json:"subtotal"`
	Total      int    `json:"total"`
	Discount   int    `json:"discount"`
	CouponCode string `json:"coupon_code,omitempty"`
	// DiscountRejected is set when the applied coupon's final amount was
	// inconsistent with the subtotal and the discount was dropped.
	DiscountRejected bool `json:"discount_rejected,omitempty"`
}

// ComputeSubtotal returns floor(price * players). A product that does not
// fit in an int is rejected with ErrInvalidInput.
func ComputeSubtotal(price float64, players int) (int, error) {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: price %v", ErrInvalidInput, price)
	}
	if players < 1 {
		return 0, fmt.Errorf("%w: players %d", ErrInvalidInput, players)
	}
	subtotal := math.Floor(price * float64(players))
	if subtotal >= math.MaxInt {
		return 0, fmt.Errorf("%w: subtotal of %d players at %v overflows", ErrInvalidInput, players, price)
	}
	return int(subtotal), nil
}

// ComputeTotal returns floor(coupon.FinalAmount) for a valid coupon and the
// subtotal otherwise. A valid coupon whose final amount is missing, negative
// or above the subtotal is rejected: the subtotal is returned together with
// ErrInconsistentDiscount.
func ComputeTotal(subtotal int, coupon *model.CouponEvaluation) (int, error) {
	if coupon == nil || !coupon.Valid {
		return subtotal, nil
	}
	if coupon.FinalAmount == nil {
		return subtotal, fmt.Errorf("%w: final amount missing", ErrInconsistentDiscount)
	}
	final := *coupon.FinalAmount
	if math.IsNaN(final) || final < 0 || final > float64(subtotal) {
		return subtotal, fmt.Errorf("%w: final amount %v against subtotal %d", ErrInconsistentDiscount, final, subtotal)
	}
	return int(math.Floor(final)), nil
}
