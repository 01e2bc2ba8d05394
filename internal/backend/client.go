// Package backend is a typed HTTP client for the venue, slot, coupon and
// booking REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/court-booking-flow/internal/auth"
	"github.com/fairyhunter13/court-booking-flow/internal/metrics"
	"github.com/fairyhunter13/court-booking-flow/internal/model"
)

var (
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrUnavailable is returned when the backend could not be reached or timed out.
	ErrUnavailable = errors.New("backend unavailable")
)

const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from the backend. Message is empty when the
// body carried no detail or message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend http %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend http %d: %s", e.StatusCode, e.Message)
}

// Client calls the booking backend with the caller's bearer credential.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, tokens auth.TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache enables caching of the slow-moving list endpoints
// (venues, available coupons). Slot availability is never cached.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// ListVenues returns active courts, optionally filtered by city and game type.
func (c *Client) ListVenues(ctx context.Context, filter model.VenueFilter) ([]model.Venue, error) {
	params := url.Values{}
	if city := strings.TrimSpace(filter.City); city != "" {
		params.Set("city", city)
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		params.Set("location", loc)
	}
	if len(filter.GameTypes) > 0 {
		params.Set("game_type", strings.Join(filter.GameTypes, ","))
	}
	endpoint := c.baseURL + "/courts/"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	cacheKey := "venues:" + params.Encode()
	var venues []model.Venue
	if c.readCache(ctx, cacheKey, &venues) {
		return venues, nil
	}
	if err := c.doGet(ctx, "list_venues", endpoint, &venues); err != nil {
		return nil, err
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	c.writeCache(ctx, cacheKey, venues)
	return venues, nil
}

// GetAvailableSlots fetches the bookable slots of a court for date (YYYY-MM-DD).
func (c *Client) GetAvailableSlots(ctx context.Context, courtID, date string) (*model.AvailableSlots, error) {
	endpoint := fmt.Sprintf("%s/courts/%s/available-slots?date=%s",
		c.baseURL, url.PathEscape(courtID), url.QueryEscape(date))
	var resp model.AvailableSlots
	if err := c.doGet(ctx, "available_slots", endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAvailableCoupons returns the active coupons for the coupon picker.
func (c *Client) ListAvailableCoupons(ctx context.Context) ([]model.AvailableCoupon, error) {
	const cacheKey = "coupons:available"
	var coupons []model.AvailableCoupon
	if c.readCache(ctx, cacheKey, &coupons) {
		return coupons, nil
	}
	if err := c.doGet(ctx, "available_coupons", c.baseURL+"/coupons/available", &coupons); err != nil {
		return nil, err
	}
	if coupons == nil {
		coupons = []model.AvailableCoupon{}
	}
	c.writeCache(ctx, cacheKey, coupons)
	return coupons, nil
}

// ValidateCoupon asks the backend to price a coupon against a subtotal.
func (c *Client) ValidateCoupon(ctx context.Context, req model.ValidateCouponRequest) (*model.ValidateCouponResponse, error) {
	var resp model.ValidateCouponResponse
	if err := c.doPost(ctx, "validate_coupon", c.baseURL+"/coupons/validate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateBooking submits a booking and returns the created record.
func (c *Client) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	var resp model.Booking
	if err := c.doPost(ctx, "create_booking", c.baseURL+"/bookings/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBookings returns the bookings of the authenticated user.
func (c *Client) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.doGet(ctx, "list_bookings", c.baseURL+"/bookings/", &bookings); err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return bookings, nil
}

// Ping checks that the backend answers on its root path.
func (c *Client) Ping(ctx context.Context) error {
	return c.doGet(ctx, "ping", c.baseURL+"/", nil)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, name, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(ctx, name, req, out)
}

func (c *Client) doPost(ctx context.Context, name, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, name, req, out)
}

func (c *Client) do(ctx context.Context, name string, req *http.Request, out any) error {
	if err := c.authorize(ctx, req); err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackendRequest(name, "error", time.Since(start).Seconds())
		return fmt.Errorf("%s: %w: %w", name, ErrUnavailable, err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackendRequest(name, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrMalformedResponse, err)
	}
	return nil
}

// authorize attaches the bearer token. A missing token is not an error here;
// the backend's auth gate decides.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return nil
		}
		return fmt.Errorf("resolve bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// parseAPIError extracts "detail" or "message" from an error body. FastAPI
// validation errors carry detail as a list of {msg} objects.
func parseAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	if msg := detailMessage(body.Detail); msg != "" {
		apiErr.Message = msg
	} else if body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
