package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

// CatalogAPI is the read-only backend surface proxied by CatalogHandler.
type CatalogAPI interface {
	ListVenues(ctx context.Context, filter model.VenueFilter) ([]model.Venue, error)
	ListAvailableCoupons(ctx context.Context) ([]model.AvailableCoupon, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
}

// ReceiptLister reads the local receipt ledger.
type ReceiptLister interface {
	List(ctx context.Context, limit int) ([]model.Receipt, error)
}

// CatalogHandler serves the lists the booking screens are built from.
type CatalogHandler struct {
	api      CatalogAPI
	receipts ReceiptLister
}

// NewCatalogHandler creates a CatalogHandler. receipts may be nil when the
// ledger is disabled.
func NewCatalogHandler(api CatalogAPI, receipts ReceiptLister) *CatalogHandler {
	return &CatalogHandler{api: api, receipts: receipts}
}

// Register mounts the catalog routes on r.
func (h *CatalogHandler) Register(r fiber.Router) {
	r.Get("/venues", h.ListVenues)
	r.Get("/coupons/available", h.ListCoupons)
	r.Get("/bookings", h.ListBookings)
	r.Get("/receipts", h.ListReceipts)
}

// ListVenues handles GET /api/venues?city=&location=&game_type=a,b.
func (h *CatalogHandler) ListVenues(c *fiber.Ctx) error {
	filter := model.VenueFilter{
		City:     strings.TrimSpace(c.Query("city")),
		Location: strings.TrimSpace(c.Query("location")),
	}
	for _, gt := range strings.Split(c.Query("game_type"), ",") {
		if gt = strings.TrimSpace(gt); gt != "" {
			filter.GameTypes = append(filter.GameTypes, gt)
		}
	}

	venues, err := h.api.ListVenues(c.UserContext(), filter)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(venues)
}

// ListCoupons handles GET /api/coupons/available.
func (h *CatalogHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.api.ListAvailableCoupons(c.UserContext())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(coupons)
}

// ListBookings handles GET /api/bookings?status=. The status filter is
// applied here because the backend returns every booking of the user.
func (h *CatalogHandler) ListBookings(c *fiber.Ctx) error {
	bookings, err := h.api.ListBookings(c.UserContext())
	if err != nil {
		return writeServiceError(c, err)
	}

	status := strings.TrimSpace(c.Query("status"))
	if status == "" {
		return c.JSON(bookings)
	}
	filtered := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if strings.EqualFold(b.Status, status) {
			filtered = append(filtered, b)
		}
	}
	return c.JSON(filtered)
}

// ListReceipts handles GET /api/receipts?limit=.
func (h *CatalogHandler) ListReceipts(c *fiber.Ctx) error {
	if h.receipts == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "receipt ledger is disabled"})
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: limit must be between 1 and 500"})
		}
		limit = n
	}

	receipts, err := h.receipts.List(c.UserContext(), limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(receipts)
}
