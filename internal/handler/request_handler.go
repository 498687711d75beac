package handler

import (
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RequestHandler struct {
	service service.RequestService
}

func NewRequestHandler(s service.RequestService) *RequestHandler {
	return &RequestHandler{service: s}
}

type RejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// GET /api/v1/item-requests?status=
func (h *RequestHandler) GetRequests(c *fiber.Ctx) error {
	q := service.RequestQuery{Status: model.RequestStatus(c.Query("status"))}
	requests, err := h.service.ListRequests(c.UserContext(), currentActor(c), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// GET /api/v1/item-requests/:id
func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "request")
	}
	req, err := h.service.GetRequest(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// POST /api/v1/item-requests
func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	var body service.SubmitRequestInput
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	req, err := h.service.SubmitRequest(c.UserContext(), currentActor(c), body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Request submitted", "data": req})
}

// POST /api/v1/item-requests/:id/approve
func (h *RequestHandler) Approve(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "request")
	}
	req, err := h.service.Approve(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Request approved", "data": req})
}

// POST /api/v1/item-requests/:id/reject
func (h *RequestHandler) Reject(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "request")
	}
	var body RejectRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	req, err := h.service.Reject(c.UserContext(), currentActor(c), id, body.RejectionReason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Request rejected", "data": req})
}
