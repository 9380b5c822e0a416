package models

import "time"

const (
	GiftTypeMonthly  = "monthly"
	GiftTypeAnnual   = "annual"
	GiftTypeLifetime = "lifetime"
)

// GiftDetails records a single gift transaction. Rows are immutable after
// creation: re-gifting the same recipient extends the parent subscription's
// period end and appends a fresh GiftDetails row, so the gift history stays
// complete even though the entitlement is one merged expiration.
type GiftDetails struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID uint      `gorm:"not null;index" json:"subscription_id"`
	SenderName     string    `gorm:"type:varchar(150)" json:"sender_name"`
	GiftMessage    string    `gorm:"type:text" json:"gift_message"`
	GiftType       string    `gorm:"type:varchar(20);not null" json:"gift_type" validate:"oneof=monthly annual lifetime"`
	GiftQuantity   int       `gorm:"not null;default:1" json:"gift_quantity" validate:"min=1"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsValidGiftType reports whether the given string is a known gift type.
func IsValidGiftType(giftType string) bool {
	switch giftType {
	case GiftTypeMonthly, GiftTypeAnnual, GiftTypeLifetime:
		return true
	default:
		return false
	}
}
