package middleware

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP. rate uses the limiter format,
// e.g. "120-M" for 120 requests per minute.
func RateLimit(rate string) (fiber.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore()
	instance := limiter.New(store, parsed)

	return func(c *fiber.Ctx) error {
		ctx, err := instance.Get(c.UserContext(), c.IP())
		if err != nil {
			// limiter store failure must not take the API down
			log.Printf("Warning: rate limiter unavailable: %v", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, slow down"})
		}
		return c.Next()
	}, nil
}
