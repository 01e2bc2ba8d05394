package model

// AvailableCoupon is an active coupon offered by the backend for the coupon picker.
type AvailableCoupon struct {
	Code          string   `json:"code"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue float64  `json:"discount_value"`
	MinOrderValue *float64 `json:"min_order_value,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// ValidateCouponRequest is the body of POST /coupons/validate.
type ValidateCouponRequest struct {
	CouponCode  string `json:"coupon_code"`
	TotalAmount int    `json:"total_amount"`
}

// ValidateCouponResponse is the backend's answer to a coupon validation.
type ValidateCouponResponse struct {
	Valid              bool     `json:"valid"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64 `json:"discount_amount,omitempty"`
	FinalAmount        *float64 `json:"final_amount,omitempty"`
	Message            string   `json:"message"`
}

// CouponEvaluation is the outcome of validating a coupon against one subtotal.
// The discount fields are only set when Valid is true.
type CouponEvaluation struct {
	Code               string   `json:"code"`
	Valid              bool     `json:"valid"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64 `json:"discount_amount,omitempty"`
	FinalAmount        *float64 `json:"final_amount,omitempty"`
	Message            string   `json:"message"`
	Subtotal           int      `json:"subtotal"`
}
