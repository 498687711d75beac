package handler

import (
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles user creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	user, err := h.userService.CreateUser(c.UserContext(), currentActor(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// GetUsers returns all users
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext(), currentActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser returns a single user by ID
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "user")
	}

	user, err := h.userService.GetUserByID(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

// UpdateUser handles user update
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "user")
	}

	var req service.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	user, err := h.userService.UpdateUser(c.UserContext(), currentActor(c), id, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"data":    user,
	})
}

// DeleteUser handles user deletion
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return badID(c, "user")
	}

	if err := h.userService.DeleteUser(c.UserContext(), currentActor(c), id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// GET /api/v1/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	actor := currentActor(c)
	user, err := h.userService.GetUserByID(c.UserContext(), actor, actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// PUT /api/v1/profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), currentActor(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"data":    user,
	})
}
