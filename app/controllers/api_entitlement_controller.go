package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianBeck/CastDeck/internal/pkg/billing"
	"github.com/JulianBeck/CastDeck/internal/pkg/cache"
	"github.com/JulianBeck/CastDeck/internal/pkg/database"
	"github.com/JulianBeck/CastDeck/internal/pkg/entitlements"
)

// HandleGetEntitlement resolves the canonical entitlement for a user and
// reports per-feature access, so clients never re-implement gating rules.
func HandleGetEntitlement(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}

	resolver := entitlements.NewResolver(billing.NewRepository(database.GetDB()), cache.NewStore())
	ent, err := resolver.Resolve(c.Context(), uint(userID))
	if err != nil {
		if errors.Is(err, entitlements.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "entitlement_lookup_failed"})
	}

	features := make(map[entitlements.Feature]entitlements.AccessDecision)
	for _, feature := range entitlements.Features() {
		features[feature] = entitlements.CanAccess(feature, ent)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"entitlement": ent,
		"features":    features,
	})
}

// HandleCheckFeature gates a single feature for a user.
func HandleCheckFeature(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}
	feature := entitlements.Feature(c.Params("feature"))
	if feature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_feature"})
	}

	resolver := entitlements.NewResolver(billing.NewRepository(database.GetDB()), cache.NewStore())
	ent, err := resolver.Resolve(c.Context(), uint(userID))
	if err != nil {
		if errors.Is(err, entitlements.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "entitlement_lookup_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(entitlements.CanAccess(feature, ent))
}
