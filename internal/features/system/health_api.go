package system

import (
	"go-iam/internal/common/api"
	"go-iam/internal/database"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	db *database.Database
}

func NewHealthApi(db *database.Database) api.Route {
	return &HealthApi{db: db}
}

// Setup registers the liveness probe. It reports degraded when the
// database stops answering pings.
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := h.db.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
