package middleware

import (
	"context"
	"errors"
	"strings"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// Authenticator resolves a bearer token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (service.Actor, error)
}

// RequireAuth is middleware that validates JWT token and sets the actor in context
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		return authenticate(c, auth, parts[1])
	}
}

// RequireWSAuth guards the WebSocket upgrade. Browsers cannot set headers on
// a WebSocket handshake, so the token comes from ?token= instead.
func RequireWSAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}
		return authenticate(c, auth, token)
	}
}

func authenticate(c *fiber.Ctx, auth Authenticator, token string) error {
	actor, err := auth.Authenticate(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}
		return err
	}

	// Set user info in context for downstream handlers
	c.Locals(actorKey, actor)
	c.Locals("user_id", actor.ID.String())
	c.Locals("user_name", actor.Name)

	return c.Next()
}

// ActorFrom returns the actor stored by RequireAuth.
func ActorFrom(c *fiber.Ctx) (service.Actor, bool) {
	actor, ok := c.Locals(actorKey).(service.Actor)
	return actor, ok
}

// RequireCapability checks if the authenticated user's role grants the capability
func RequireCapability(required model.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !actor.Can(required) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(required) + "' capability",
			})
		}
		return c.Next()
	}
}

// RequireAnyCapability checks if the user has at least one of the capabilities
func RequireAnyCapability(required ...model.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		for _, want := range required {
			if actor.Can(want) {
				return c.Next()
			}
		}

		names := make([]string, len(required))
		for i, want := range required {
			names[i] = string(want)
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " capabilities",
		})
	}
}
