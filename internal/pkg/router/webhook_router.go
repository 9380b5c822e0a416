package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JulianBeck/CastDeck/app/controllers"
	"github.com/JulianBeck/CastDeck/internal/pkg/constants"
)

type WebhookRouter struct {
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	app.Post(constants.StripeWebhookRoute, controllers.HandleStripeWebhook)
}

func NewWebhookRouter() *WebhookRouter {
	return &WebhookRouter{}
}
