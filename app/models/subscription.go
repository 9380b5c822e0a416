package models

import "time"

const (
	SubscriptionTierFree = "free"
	SubscriptionTierPro  = "pro"
)

const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
)

const (
	TransactionTypeRecurring = "recurring"
	TransactionTypeLifetime  = "lifetime"
)

// Subscription is one source of Pro access for a user: either a direct
// Stripe subscription the user pays for, or a gift bought by someone else.
// A user can hold both at the same time; the entitlement resolver decides
// which one wins. Rows are updated in place on renewal or gift extension
// and only removed on full account deletion.
type Subscription struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	UserID          uint   `gorm:"not null;index:idx_subscriptions_user_gift,priority:1" json:"user_id"`
	Tier            string `gorm:"type:varchar(20);not null;default:'free'" json:"tier"`
	Status          string `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	TransactionType string `gorm:"type:varchar(20);not null;default:'recurring'" json:"transaction_type"`
	// CurrentPeriodEnd is null only for lifetime subscriptions, which never
	// expire.
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	IsGift               bool       `gorm:"default:false;index:idx_subscriptions_user_gift,priority:2" json:"is_gift"`
	StripeCustomerID     string     `gorm:"type:varchar(191);default:'';index" json:"stripe_customer_id"`
	StripePriceID        string     `gorm:"type:varchar(191);default:''" json:"stripe_price_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);default:'';index" json:"stripe_subscription_id"`
	MetadataJSON         string     `gorm:"type:longtext" json:"metadata_json"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// GiftDetails holds the full gift history for a gift subscription. Each
	// gift transaction appends a row; the parent subscription carries only
	// the merged expiration.
	GiftDetails []GiftDetails `gorm:"foreignKey:SubscriptionID" json:"gift_details,omitempty"`
}

// IsLifetime reports whether this subscription never expires.
func (s *Subscription) IsLifetime() bool {
	return s.TransactionType == TransactionTypeLifetime
}

// IsStatusActive reports whether the status still entitles access. Trialing
// counts: a trial is an entitling state even though no payment settled yet.
func (s *Subscription) IsStatusActive() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return true
	default:
		return false
	}
}

// ExpiresAfter reports whether this subscription outlasts other. Lifetime
// subscriptions outlast everything; a nil period end on a non-lifetime row
// is treated as already expired.
func (s *Subscription) ExpiresAfter(other *Subscription) bool {
	if s.IsLifetime() {
		return true
	}
	if other.IsLifetime() {
		return false
	}
	if s.CurrentPeriodEnd == nil {
		return false
	}
	if other.CurrentPeriodEnd == nil {
		return true
	}
	return s.CurrentPeriodEnd.After(*other.CurrentPeriodEnd)
}
