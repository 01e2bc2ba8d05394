package service

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// mockSlotAPI is a mock implementation of SlotAPI.
type mockSlotAPI struct {
	getAvailableSlotsFn func(ctx context.Context, courtID, date string) (*model.AvailableSlots, error)
}

func (m *mockSlotAPI) GetAvailableSlots(ctx context.Context, courtID, date string) (*model.AvailableSlots, error) {
	if m.getAvailableSlotsFn != nil {
		return m.getAvailableSlotsFn(ctx, courtID, date)
	}
	return &model.AvailableSlots{CourtID: courtID, Date: date, Slots: []model.Slot{}}, nil
}

// mockCouponAPI is a mock implementation of CouponAPI.
type mockCouponAPI struct {
	validateCouponFn func(ctx context.Context, req model.ValidateCouponRequest) (*model.ValidateCouponResponse, error)
}

func (m *mockCouponAPI) ValidateCoupon(ctx context.Context, req model.ValidateCouponRequest) (*model.ValidateCouponResponse, error) {
	if m.validateCouponFn != nil {
		return m.validateCouponFn(ctx, req)
	}
	return &model.ValidateCouponResponse{Valid: false, Message: "Invalid coupon code"}, nil
}

// mockBookingAPI is a mock implementation of BookingAPI.
type mockBookingAPI struct {
	createBookingFn func(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
}

func (m *mockBookingAPI) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	if m.createBookingFn != nil {
		return m.createBookingFn(ctx, req)
	}
	return &model.Booking{ID: "booking-1", CourtID: req.CourtID, Status: "pending"}, nil
}

// mockReceiptRecorder records inserted receipts.
type mockReceiptRecorder struct {
	mu       sync.Mutex
	receipts []model.Receipt
	insertFn func(ctx context.Context, receipt model.Receipt) error
}

func (m *mockReceiptRecorder) Insert(ctx context.Context, receipt model.Receipt) error {
	m.mu.Lock()
	m.receipts = append(m.receipts, receipt)
	m.mu.Unlock()
	if m.insertFn != nil {
		return m.insertFn(ctx, receipt)
	}
	return nil
}

func (m *mockReceiptRecorder) all() []model.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Receipt{}, m.receipts...)
}

func float64Ptr(f float64) *float64 {
	return &f
}

func standardSlots(date string) *model.AvailableSlots {
	return &model.AvailableSlots{
		CourtID: "court-1",
		Date:    date,
		Slots: []model.Slot{
			{StartTime: "10:00", EndTime: "11:00", DisplayTime: "10:00 AM - 11:00 AM", Price: 200, Available: true},
			{StartTime: "11:00", EndTime: "12:00", DisplayTime: "11:00 AM - 12:00 PM", Price: 250, Available: false},
			{StartTime: "18:00", EndTime: "19:00", DisplayTime: "06:00 PM - 07:00 PM", Price: 333.5, Available: true},
		},
	}
}

// save10 answers like the backend for a 10% coupon.
func save10(_ context.Context, req model.ValidateCouponRequest) (*model.ValidateCouponResponse, error) {
	if req.CouponCode != "SAVE10" {
		return &model.ValidateCouponResponse{Valid: false, Message: "Invalid coupon code"}, nil
	}
	discount := float64(req.TotalAmount) * 0.10
	return &model.ValidateCouponResponse{
		Valid:              true,
		DiscountPercentage: float64Ptr(10),
		DiscountAmount:     float64Ptr(discount),
		FinalAmount:        float64Ptr(float64(req.TotalAmount) - discount),
		Message:            "Coupon applied successfully",
	}, nil
}
