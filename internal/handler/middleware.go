package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/court-booking-flow/internal/auth"
)

// BearerToken copies the caller's bearer credential onto the user context so
// backend calls made for this request are authorized as the caller.
func BearerToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := auth.ParseBearer(c.Get(fiber.HeaderAuthorization)); ok {
			c.SetUserContext(auth.WithToken(c.UserContext(), token))
		}
		return c.Next()
	}
}
