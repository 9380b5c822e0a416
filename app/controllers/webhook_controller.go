package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianBeck/CastDeck/internal/pkg/billing"
	"github.com/JulianBeck/CastDeck/internal/pkg/cache"
	"github.com/JulianBeck/CastDeck/internal/pkg/database"
	"github.com/JulianBeck/CastDeck/internal/pkg/entitlements"
	"github.com/JulianBeck/CastDeck/internal/pkg/env"
	"github.com/JulianBeck/CastDeck/internal/pkg/metrics/counter"
)

// HandleStripeWebhook receives payment provider events. The body must stay
// raw for signature verification; Fiber's parsed accessors are never used
// here.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	svc := billing.NewService(billing.NewRepository(database.GetDB()), secret)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, err := svc.ProcessWebhook(ctx, rawBody, signature)
	if err != nil {
		if parsed, perr := billing.ParseWebhookEvent(rawBody); perr == nil {
			_ = counter.AddWebhookFailure(parsed.Type)
		}
		switch {
		case errors.Is(err, billing.ErrVerification):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
		case errors.Is(err, billing.ErrValidation):
			log.Printf("[webhook] rejected payload: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		case errors.Is(err, billing.ErrReferential):
			// Possibly a replication-lag race; 500 makes the provider
			// redeliver once the referenced row exists.
			log.Printf("[webhook] missing reference: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "referenced_record_missing"})
		default:
			log.Printf("[webhook] processing failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
		}
	}

	_ = counter.AddWebhookEvent(outcome.EventType)

	if outcome.UserID != 0 {
		resolver := entitlements.NewResolver(billing.NewRepository(database.GetDB()), cache.NewStore())
		resolver.Invalidate(outcome.UserID)
	}

	return c.Status(fiber.StatusOK).JSON(outcome)
}
