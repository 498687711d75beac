package handler

import (
	"errors"
	"log"
	"time"

	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrReferentialIntegrity):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("ERROR %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// Helper untuk ambil actor dari context (set by auth middleware)
func currentActor(c *fiber.Ctx) service.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}

// Helper untuk parse UUID dari path param :id
func parseID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func badID(c *fiber.Ctx, what string) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid " + what + " ID"})
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter.
func parseDateQuery(c *fiber.Ctx, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func badDate(c *fiber.Ctx, key string) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid " + key + ", use YYYY-MM-DD"})
}
