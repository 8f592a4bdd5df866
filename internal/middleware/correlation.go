package middleware

import (
	"context"

	"go-iam/internal/common/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const CorrelationHeader = "X-Correlation-ID"

// CorrelationMiddleware tags every request with a correlation ID (taken
// from the X-Correlation-ID header or minted fresh) and captures the HTTP
// context audit rows need. Both travel on the user context so services
// never touch the transport layer.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := c.Get(CorrelationHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		ctx := context.WithValue(c.UserContext(), models.CorrelationIDKey, correlationID)
		ctx = context.WithValue(ctx, models.RequestMetaKey, models.RequestMeta{
			IPAddress: c.IP(),
			Path:      c.Path(),
			Method:    c.Method(),
		})
		c.SetUserContext(ctx)

		c.Set(CorrelationHeader, correlationID)
		return c.Next()
	}
}
