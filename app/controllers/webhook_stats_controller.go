package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JulianBeck/CastDeck/internal/pkg/metrics/counter"
)

// HandleWebhookStats reports processed and failed webhook counts per event
// type, for operational dashboards.
func HandleWebhookStats(c *fiber.Ctx) error {
	processed, err := counter.WebhookEventTotals()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	failures, err := counter.WebhookFailureTotals()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"processed": processed,
		"failures":  failures,
	})
}
