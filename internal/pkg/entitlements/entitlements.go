package entitlements

import (
	"strings"
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Source names which record produced the winning entitlement.
type Source string

const (
	SourceDirect Source = "DIRECT"
	SourceGift   Source = "GIFT"
	SourceLegacy Source = "LEGACY"
	SourceNone   Source = "NONE"
)

// Entitlement is the single resolved access decision for a user. It is
// computed on read and never persisted; in particular the legacy variant is
// a virtual grant with no backing subscription row.
type Entitlement struct {
	Tier      Tier       `json:"tier"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Source    Source     `json:"source"`
}

// NormalizeTier maps arbitrary tier strings onto the known enum, defaulting
// to free.
func NormalizeTier(tier string) Tier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case string(TierPro):
		return TierPro
	default:
		return TierFree
	}
}

// TierRank gives the total order used for gating: free < pro.
func TierRank(tier Tier) int {
	switch tier {
	case TierPro:
		return 1
	default:
		return 0
	}
}

// Resolve merges a user's subscription rows and legacy expiration into one
// entitlement. Priority, first match wins:
//
//  1. an entitling non-gift subscription — a direct trial outranks an
//     active gift, so a user who starts paying sees their own tier at once
//  2. an entitling gift subscription, preferring lifetime and then the
//     furthest period end; the dormant gift resurfaces when the direct
//     subscription lapses
//  3. a legacy expiration still in the future (virtual Pro grant)
//  4. free
func Resolve(user *models.User, subs []models.Subscription, now time.Time) Entitlement {
	now = now.UTC()

	if direct := pickEntitling(subs, false, now); direct != nil {
		return Entitlement{
			Tier:      NormalizeTier(direct.Tier),
			IsActive:  true,
			ExpiresAt: expiryOf(direct),
			Source:    SourceDirect,
		}
	}

	if gift := pickEntitling(subs, true, now); gift != nil {
		return Entitlement{
			Tier:      TierPro,
			IsActive:  true,
			ExpiresAt: expiryOf(gift),
			Source:    SourceGift,
		}
	}

	if user != nil && user.HasLegacyProAt(now) {
		return Entitlement{
			Tier:      TierPro,
			IsActive:  true,
			ExpiresAt: user.LegacyProExpiration,
			Source:    SourceLegacy,
		}
	}

	return Entitlement{Tier: TierFree, IsActive: false, Source: SourceNone}
}

// pickEntitling selects the strongest entitling subscription of the given
// kind: lifetime first, then the furthest period end.
func pickEntitling(subs []models.Subscription, gift bool, now time.Time) *models.Subscription {
	var best *models.Subscription
	for i := range subs {
		sub := &subs[i]
		if sub.IsGift != gift || !isEntitling(sub, now) {
			continue
		}
		if best == nil || sub.ExpiresAfter(best) {
			best = sub
		}
	}
	return best
}

// isEntitling checks both the status and, when a period end is recorded,
// the clock. Gift subscriptions have no provider flipping their status on
// lapse, so their stored expiration is authoritative; a non-lifetime row
// with no period end yet (checkout landed, first sync pending) stays
// entitled on status alone.
func isEntitling(sub *models.Subscription, now time.Time) bool {
	if !sub.IsStatusActive() {
		return false
	}
	if sub.IsLifetime() || sub.CurrentPeriodEnd == nil {
		return true
	}
	return sub.CurrentPeriodEnd.After(now)
}

// expiryOf reports the entitlement expiry of a subscription; lifetime
// subscriptions never expire and report nil.
func expiryOf(sub *models.Subscription) *time.Time {
	if sub.IsLifetime() {
		return nil
	}
	return sub.CurrentPeriodEnd
}
