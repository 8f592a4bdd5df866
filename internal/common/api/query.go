package api

import (
	"strconv"
	"time"

	"go-iam/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// PageFromQuery reads the shared pageNumber/pageSize parameters.
func PageFromQuery(c *fiber.Ctx) models.PageRequest {
	return models.PageRequest{
		PageNumber: c.QueryInt("pageNumber", 1),
		PageSize:   c.QueryInt("pageSize", models.DefaultPageSize),
	}.Normalize()
}

// BoolFromQuery parses an optional boolean query parameter, accepting
// the strconv spellings (1/t/true/0/f/false). Unparseable input is
// treated as absent.
func BoolFromQuery(c *fiber.Ctx, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// TimeFromQuery parses an optional RFC3339 query parameter.
func TimeFromQuery(c *fiber.Ctx, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
