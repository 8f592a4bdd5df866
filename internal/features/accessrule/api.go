package accessrule

import (
	"go-iam/internal/config"
	"go-iam/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RuleApi struct {
	controller *RuleController
	config     *config.Config
}

func NewRuleApi(controller *RuleController, config *config.Config) *RuleApi {
	return &RuleApi{
		controller: controller,
		config:     config,
	}
}

func (h *RuleApi) Setup(app *fiber.App) {
	rules := app.Group("/api/access-rules", middleware.AuthMiddleware(h.config.SkipAuth))

	rules.Post("/", h.controller.CreateRule)
	rules.Get("/", h.controller.ListRules)
	rules.Get("/:id", h.controller.GetRule)
	rules.Put("/:id", h.controller.UpdateRule)
	rules.Delete("/:id", h.controller.DeleteRule)
}
