package models

import "time"

// ProcessedWebhookEvent is the idempotency ledger for inbound Stripe
// events. A row is written in the same transaction as the event's side
// effects, so a rollback also un-marks the event and the provider's next
// redelivery re-applies it cleanly. The unique event id turns Stripe's
// at-least-once delivery into exactly-once effects.
type ProcessedWebhookEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"event_id"`
	EventType   string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ProcessedAt time.Time `gorm:"autoCreateTime" json:"processed_at"`
}
