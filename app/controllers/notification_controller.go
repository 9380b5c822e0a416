package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/JulianBeck/CastDeck/app/models"
	"github.com/JulianBeck/CastDeck/internal/pkg/database"
)

// HandleListNotifications returns a user's unread notifications, newest
// first. Gift notifications carry the gift details id for lookup.
func HandleListNotifications(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}

	notifications, err := models.ListUnreadNotifications(database.GetDB(), uint(userID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "notification_lookup_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"notifications": notifications})
}

// HandleMarkNotificationRead marks one notification as read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := c.ParamsInt("id")
	if err != nil || notificationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_notification_id"})
	}

	db := database.GetDB()
	var notification models.Notification
	if err := db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "notification_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "notification_lookup_failed"})
	}

	if err := notification.MarkAsRead(db); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "notification_update_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
