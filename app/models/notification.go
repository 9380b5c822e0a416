package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationTypeGiftSubscription = "gift_subscription"
)

type Notification struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type   string `gorm:"type:varchar(50)" json:"type" validate:"oneof=gift_subscription system"`
	IsRead bool   `gorm:"default:false" json:"is_read"`
	// GiftDetailsID points at the gift transaction this notification
	// announces. Lookup only, no ownership: deleting a notification never
	// touches the gift record.
	GiftDetailsID uint           `gorm:"index" json:"gift_details_id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead flags a notification as read. Called by the consuming UI; the
// entitlement core never mutates notifications after creating them.
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}

// ListUnreadNotifications returns all unread notifications for a user,
// newest first.
func ListUnreadNotifications(db *gorm.DB, userID uint) ([]Notification, error) {
	var notifications []Notification
	err := db.Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}
