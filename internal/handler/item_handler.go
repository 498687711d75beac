package handler

import (
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	service service.ItemService
}

func NewItemHandler(s service.ItemService) *ItemHandler {
	return &ItemHandler{service: s}
}

// GetItems lists items, optionally filtered by ?search=
// GET /api/v1/items
func (h *ItemHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.UserContext(), currentActor(c), c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GET /api/v1/items/:id
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "item")
	}
	item, err := h.service.GetItem(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// POST /api/v1/items
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var req service.ItemInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.CreateItem(c.UserContext(), currentActor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Item created", "data": item})
}

// UpdateItem replaces the item's fields and its whole size set
// PUT /api/v1/items/:id
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "item")
	}
	var req service.ItemInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.UpdateItem(c.UserContext(), currentActor(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item updated", "data": item})
}

// DELETE /api/v1/items/:id
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "item")
	}
	if err := h.service.DeleteItem(c.UserContext(), currentActor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item deleted"})
}
