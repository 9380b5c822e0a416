package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/JulianBeck/CastDeck/app/controllers"
	"github.com/JulianBeck/CastDeck/internal/pkg/constants"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIPrefix, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group(constants.APIV1Prefix)
	v1.Get(constants.EntitlementRoute, controllers.HandleGetEntitlement)
	v1.Get(constants.FeatureCheckRoute, controllers.HandleCheckFeature)
	v1.Get(constants.NotificationsRoute, controllers.HandleListNotifications)
	v1.Post(constants.NotificationReadRoute, controllers.HandleMarkNotificationRead)
	v1.Get(constants.WebhookStatsRoute, controllers.HandleWebhookStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
