package handler

import (
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Email and password are required"})
	}

	response, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// ChangePassword handles password change. Existing sessions are invalidated.
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.authService.ChangePassword(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.Token == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Token is required"})
	}

	response, err := h.authService.ValidateToken(c.UserContext(), req.Token)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// Me returns the authenticated user with its capabilities
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor := currentActor(c)
	user, err := h.userService.GetUserByID(c.UserContext(), actor, actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user, "capabilities": model.RoleCapabilities[actor.Role]})
}
