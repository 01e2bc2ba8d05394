package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/court-booking-flow/internal/model"
	"github.com/fairyhunter13/court-booking-flow/internal/service"
)

// FlowStore opens and finds booking flows.
type FlowStore interface {
	Create(venue service.VenueRef) (*service.Flow, error)
	Get(id string) (*service.Flow, error)
}

// FlowHandler exposes the booking flow steps over HTTP.
type FlowHandler struct {
	flows     FlowStore
	validator *validator.Validate
}

// NewFlowHandler creates a new FlowHandler with the given store and validator.
func NewFlowHandler(flows FlowStore, v *validator.Validate) *FlowHandler {
	return &FlowHandler{flows: flows, validator: v}
}

// Register mounts the flow routes on r.
func (h *FlowHandler) Register(r fiber.Router) {
	r.Post("/flows", h.StartFlow)
	r.Get("/flows/:id", h.GetFlow)
	r.Delete("/flows/:id", h.AbandonFlow)
	r.Put("/flows/:id/venue", h.ChangeVenue)
	r.Put("/flows/:id/date", h.SelectDate)
	r.Post("/flows/:id/slots/reload", h.ReloadSlots)
	r.Put("/flows/:id/slot", h.PickSlot)
	r.Put("/flows/:id/players", h.SetPlayers)
	r.Put("/flows/:id/details", h.SetTeamDetails)
	r.Post("/flows/:id/coupon", h.ApplyCoupon)
	r.Delete("/flows/:id/coupon", h.RemoveCoupon)
	r.Post("/flows/:id/submit", h.Submit)
}

// bind parses and validates the JSON body into req. It writes the 400
// response itself and reports false when the handler should stop.
func (h *FlowHandler) bind(c *fiber.Ctx, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}
	return true, nil
}

func (h *FlowHandler) flow(c *fiber.Ctx) (*service.Flow, error) {
	return h.flows.Get(c.Params("id"))
}

// StartFlow handles POST /api/flows.
func (h *FlowHandler) StartFlow(c *fiber.Ctx) error {
	var req model.StartFlowRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	flow, err := h.flows.Create(venueRef(req))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(flow.Snapshot())
}

// GetFlow handles GET /api/flows/:id.
func (h *FlowHandler) GetFlow(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// AbandonFlow handles DELETE /api/flows/:id.
func (h *FlowHandler) AbandonFlow(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if err := flow.Abandon(); err != nil {
		return writeServiceError(c, err)
	}
	log.Info().Str("flow_id", flow.ID()).Msg("booking flow abandoned")
	return c.Status(fiber.StatusNoContent).Send(nil)
}

// ChangeVenue handles PUT /api/flows/:id/venue.
func (h *FlowHandler) ChangeVenue(c *fiber.Ctx) error {
	var req model.StartFlowRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if _, err := flow.ChangeVenue(c.UserContext(), venueRef(req)); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// SelectDate handles PUT /api/flows/:id/date.
func (h *FlowHandler) SelectDate(c *fiber.Ctx) error {
	var req model.SelectDateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if _, err := flow.SelectDate(c.UserContext(), req.Date); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// ReloadSlots handles POST /api/flows/:id/slots/reload.
func (h *FlowHandler) ReloadSlots(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if _, err := flow.ReloadSlots(c.UserContext()); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// PickSlot handles PUT /api/flows/:id/slot.
func (h *FlowHandler) PickSlot(c *fiber.Ctx) error {
	var req model.PickSlotRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if err := flow.PickSlot(req.StartTime); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// SetPlayers handles PUT /api/flows/:id/players. Counts below 1 are clamped.
func (h *FlowHandler) SetPlayers(c *fiber.Ctx) error {
	var req model.SetPlayersRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if err := flow.SetPlayers(*req.NumberOfPlayers); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// SetTeamDetails handles PUT /api/flows/:id/details.
func (h *FlowHandler) SetTeamDetails(c *fiber.Ctx) error {
	var req model.TeamDetailsRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if err := flow.SetTeamDetails(req.TeamName, req.SpecialRequests); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// ApplyCoupon handles POST /api/flows/:id/coupon. A rejected coupon is not
// an HTTP error: the snapshot carries the evaluation and its message.
func (h *FlowHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req model.ApplyCouponRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	eval, err := flow.ApplyCoupon(c.UserContext(), req.Code)
	if err != nil {
		return writeServiceError(c, err)
	}
	log.Info().
		Str("flow_id", flow.ID()).
		Str("coupon_code", eval.Code).
		Bool("valid", eval.Valid).
		Msg("coupon evaluated")
	return c.JSON(flow.Snapshot())
}

// RemoveCoupon handles DELETE /api/flows/:id/coupon.
func (h *FlowHandler) RemoveCoupon(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if err := flow.RemoveCoupon(); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(flow.Snapshot())
}

// Submit handles POST /api/flows/:id/submit. The confirmed snapshot is
// returned once; the flow is closed afterwards.
func (h *FlowHandler) Submit(c *fiber.Ctx) error {
	flow, err := h.flow(c)
	if err != nil {
		return writeServiceError(c, err)
	}
	if _, err := flow.Submit(c.UserContext()); err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(flow.Snapshot())
}

func venueRef(req model.StartFlowRequest) service.VenueRef {
	return service.VenueRef{
		ID:       req.VenueID,
		Name:     req.VenueName,
		Location: req.VenueLocation,
	}
}
