package handler

import (
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// GET /api/v1/categories
func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "category")
	}
	category, err := h.service.GetCategory(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// POST /api/v1/categories
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CategoryInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	category, err := h.service.CreateCategory(c.UserContext(), currentActor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Category created", "data": category})
}

// PUT /api/v1/categories/:id
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "category")
	}
	var req service.CategoryInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	category, err := h.service.UpdateCategory(c.UserContext(), currentActor(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category updated", "data": category})
}

// DELETE /api/v1/categories/:id
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "category")
	}
	if err := h.service.DeleteCategory(c.UserContext(), currentActor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}

// GET /api/v1/units
func (h *CatalogHandler) GetUnits(c *fiber.Ctx) error {
	units, err := h.service.ListUnits(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(units)
}

func (h *CatalogHandler) GetUnit(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "unit")
	}
	unit, err := h.service.GetUnit(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(unit)
}

func (h *CatalogHandler) CreateUnit(c *fiber.Ctx) error {
	var req service.UnitInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	unit, err := h.service.CreateUnit(c.UserContext(), currentActor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Unit created", "data": unit})
}

func (h *CatalogHandler) UpdateUnit(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "unit")
	}
	var req service.UnitInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	unit, err := h.service.UpdateUnit(c.UserContext(), currentActor(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unit updated", "data": unit})
}

func (h *CatalogHandler) DeleteUnit(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "unit")
	}
	if err := h.service.DeleteUnit(c.UserContext(), currentActor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unit deleted"})
}
