package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

func TestComputeSubtotal(t *testing.T) {
	testCases := []struct {
		name    string
		price   float64
		players int
		want    int
	}{
		{"whole_price", 200, 2, 400},
		{"single_player", 250, 1, 250},
		{"fractional_price_floors", 333.5, 3, 1000},
		{"fraction_below_one", 0.4, 2, 0},
		{"free_slot", 0, 4, 0},
		{"large_group", 199.99, 10, 1999},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeSubtotal(tc.price, tc.players)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, int(math.Floor(tc.price*float64(tc.players))), got)
		})
	}
}

func TestComputeSubtotal_InvalidInput(t *testing.T) {
	testCases := []struct {
		name    string
		price   float64
		players int
	}{
		{"negative_price", -1, 2},
		{"zero_players", 200, 0},
		{"negative_players", 200, -3},
		{"nan_price", math.NaN(), 2},
		{"infinite_price", math.Inf(1), 1},
		{"product_overflows_int", 200, 1 << 60},
		{"huge_price", 1e300, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeSubtotal(tc.price, tc.players)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestComputeTotal(t *testing.T) {
	testCases := []struct {
		name     string
		subtotal int
		coupon   *model.CouponEvaluation
		want     int
		wantErr  error
	}{
		{"no_coupon", 400, nil, 400, nil},
		{"invalid_coupon", 400, &model.CouponEvaluation{Valid: false, FinalAmount: float64Ptr(1)}, 400, nil},
		{"valid_coupon", 400, &model.CouponEvaluation{Valid: true, FinalAmount: float64Ptr(360)}, 360, nil},
		{"fractional_final_floors", 999, &model.CouponEvaluation{Valid: true, FinalAmount: float64Ptr(899.1)}, 899, nil},
		{"final_equal_to_subtotal", 400, &model.CouponEvaluation{Valid: true, FinalAmount: float64Ptr(400)}, 400, nil},
		{"final_zero", 400, &model.CouponEvaluation{Valid: true, FinalAmount: float64Ptr(0)}, 0, nil},
		{"final_above_subtotal_clamped", 400, &model.CouponEvaluation{Valid: true, FinalAmount: float64Ptr(450)}, 400, ErrInconsistentDiscount},
		{"final_negative", 400, &model.CouponEvaluation{Valid: true, FinalAmount: float64Ptr(-5)}, 400, ErrInconsistentDiscount},
		{"final_missing", 400, &model.CouponEvaluation{Valid: true}, 400, ErrInconsistentDiscount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeTotal(tc.subtotal, tc.coupon)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeTotal_NeverExceedsSubtotal(t *testing.T) {
	for subtotal := 0; subtotal <= 1000; subtotal += 50 {
		for _, final := range []float64{0, 1, float64(subtotal) / 2, float64(subtotal), float64(subtotal) + 0.5, float64(subtotal) * 3} {
			got, _ := ComputeTotal(subtotal, &model.CouponEvaluation{Valid: true, FinalAmount: float64Ptr(final)})
			assert.LessOrEqual(t, got, subtotal, "subtotal=%d final=%v", subtotal, final)
		}
	}
}
