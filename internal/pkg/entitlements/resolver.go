package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

// ErrUserNotFound is returned when resolving an unknown user id.
var ErrUserNotFound = errors.New("user not found")

// SubscriptionSource loads the raw records the resolver merges. The billing
// repository satisfies it.
type SubscriptionSource interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error)
}

// Cache is the subset of the cache client the resolver uses. A nil cache
// disables caching entirely.
type Cache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
	Delete(key string) error
}

const entitlementCacheTTL = time.Minute

func entitlementCacheKey(userID uint) string {
	return fmt.Sprintf("entitlement:user:%d", userID)
}

// Resolver is the read path: it computes one entitlement per user from the
// persistent records, with a short-lived cache in front. It never writes
// subscription state and tolerates running while a webhook transaction is
// in flight; it simply sees pre- or post-commit rows.
type Resolver struct {
	source SubscriptionSource
	cache  Cache
	now    func() time.Time
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(source SubscriptionSource, cache Cache) *Resolver {
	return &Resolver{
		source: source,
		cache:  cache,
		now:    time.Now,
	}
}

// Resolve returns the canonical entitlement for a user.
func (r *Resolver) Resolve(ctx context.Context, userID uint) (Entitlement, error) {
	if r.cache != nil {
		if raw, err := r.cache.Get(entitlementCacheKey(userID)); err == nil && raw != "" {
			var ent Entitlement
			if err := json.Unmarshal([]byte(raw), &ent); err == nil {
				return ent, nil
			}
		}
	}

	user, err := r.source.GetUserByID(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if user == nil {
		return Entitlement{}, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	subs, err := r.source.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}

	ent := Resolve(user, subs, r.now())

	if r.cache != nil {
		if raw, err := json.Marshal(ent); err == nil {
			// Best effort; a cold cache only costs a recompute.
			_ = r.cache.Set(entitlementCacheKey(userID), string(raw), entitlementCacheTTL)
		}
	}
	return ent, nil
}

// Invalidate drops the cached entitlement after a webhook mutated the
// user's subscriptions.
func (r *Resolver) Invalidate(userID uint) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(entitlementCacheKey(userID))
}
