package handler

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/backend"
	"github.com/fairyhunter13/court-booking-flow/internal/service"
)

// formatValidationError converts validator errors to a single readable message.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			return "invalid request: " + field + " is required"
		case "notblank":
			return "invalid request: " + field + " cannot be whitespace only"
		case "max":
			if fe.Kind() == reflect.String {
				return fmt.Sprintf("invalid request: %s exceeds maximum length of %s", field, fe.Param())
			}
			return fmt.Sprintf("invalid request: %s must be at most %s", field, fe.Param())
		case "ymd":
			return "invalid request: " + field + " must be a date in YYYY-MM-DD format"
		case "hhmm":
			return "invalid request: " + field + " must be a time in HH:MM format"
		default:
			return "invalid request: " + field + " is invalid"
		}
	}
	return "invalid request"
}

// writeServiceError maps service and backend errors to an HTTP status and a
// {"error": "..."} body.
func writeServiceError(c *fiber.Ctx, err error) error {
	status, msg := fiber.StatusInternalServerError, "internal server error"

	var subErr *service.SubmissionError
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, service.ErrFlowNotFound):
		status, msg = fiber.StatusNotFound, "booking flow not found"
	case errors.As(err, &subErr):
		status, msg = fiber.StatusUnprocessableEntity, subErr.Reason
	case errors.Is(err, service.ErrInvalidInput):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrSlotUnavailable):
		status, msg = fiber.StatusConflict, "slot is not available"
	case errors.Is(err, service.ErrIncompleteDraft):
		status, msg = fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrSubmissionInFlight):
		status, msg = fiber.StatusConflict, "booking submission already in progress"
	case errors.Is(err, service.ErrStaleResult):
		status, msg = fiber.StatusConflict, "superseded by a newer request"
	case errors.Is(err, service.ErrInvalidTransition):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, service.ErrFetchFailed):
		status, msg = fiber.StatusBadGateway, "failed to load available slots"
	case errors.As(err, &apiErr):
		status, msg = backendStatus(apiErr)
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrMalformedResponse):
		status, msg = fiber.StatusBadGateway, "backend request failed"
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// backendStatus passes auth failures through so the client can re-authenticate;
// everything else is a bad gateway.
func backendStatus(apiErr *backend.APIError) (int, string) {
	switch apiErr.StatusCode {
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		msg := apiErr.Message
		if msg == "" {
			msg = "not authorized"
		}
		return apiErr.StatusCode, msg
	default:
		return fiber.StatusBadGateway, "backend request failed"
	}
}
