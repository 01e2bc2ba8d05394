package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/backend"
	"github.com/fairyhunter13/court-booking-flow/internal/metrics"
	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

// CouponFailureMessage is shown when the backend could not be asked or gave no usable answer.
const CouponFailureMessage = "Failed to validate coupon"

// CouponAPI is the backend surface used for coupon validation.
type CouponAPI interface {
	ValidateCoupon(ctx context.Context, req model.ValidateCouponRequest) (*model.ValidateCouponResponse, error)
}

// CouponValidator evaluates coupon codes against a subtotal. It holds no
// state between calls; the draft owns the applied coupon.
type CouponValidator struct {
	api CouponAPI
}

// NewCouponValidator creates a CouponValidator backed by api.
func NewCouponValidator(api CouponAPI) *CouponValidator {
	return &CouponValidator{api: api}
}

// NormalizeCouponCode trims and upper-cases a code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate prices code against subtotal. Only local precondition failures
// return an error (ErrInvalidInput); every backend outcome, including
// transport failure, is reported as an evaluation with Valid=false.
func (v *CouponValidator) Validate(ctx context.Context, code string, subtotal int) (model.CouponEvaluation, error) {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return model.CouponEvaluation{}, fmt.Errorf("%w: coupon code is required", ErrInvalidInput)
	}
	if subtotal < 0 {
		return model.CouponEvaluation{}, fmt.Errorf("%w: subtotal %d", ErrInvalidInput, subtotal)
	}

	eval := model.CouponEvaluation{Code: normalized, Subtotal: subtotal}

	resp, err := v.api.ValidateCoupon(ctx, model.ValidateCouponRequest{
		CouponCode:  normalized,
		TotalAmount: subtotal,
	})
	if err != nil {
		eval.Message = CouponFailureMessage
		var apiErr *backend.APIError
		// Server errors carry internal exception text; only client errors are user-facing.
		if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.StatusCode < 500 {
			eval.Message = apiErr.Message
			metrics.IncCouponValidation("rejected")
		} else {
			metrics.IncCouponValidation("error")
		}
		log.Warn().Err(err).Str("coupon_code", normalized).Int("subtotal", subtotal).Msg("coupon validation failed")
		return eval, nil
	}

	if resp == nil || (resp.Valid && resp.FinalAmount == nil) {
		eval.Message = CouponFailureMessage
		metrics.IncCouponValidation("error")
		log.Warn().Str("coupon_code", normalized).Msg("coupon validation returned an incomplete body")
		return eval, nil
	}

	eval.Message = resp.Message
	if !resp.Valid {
		if eval.Message == "" {
			eval.Message = "Invalid coupon code"
		}
		metrics.IncCouponValidation("invalid")
		return eval, nil
	}

	eval.Valid = true
	eval.DiscountPercentage = resp.DiscountPercentage
	eval.DiscountAmount = resp.DiscountAmount
	eval.FinalAmount = resp.FinalAmount
	if eval.Message == "" {
		eval.Message = "Coupon applied"
	}
	metrics.IncCouponValidation("valid")
	return eval, nil
}
