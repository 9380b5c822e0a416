package entitlements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JulianBeck/CastDeck/app/models"
)

type fakeSource struct {
	users map[uint]models.User
	subs  map[uint][]models.Subscription
	loads int
}

func (s *fakeSource) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	s.loads++
	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *fakeSource) ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error) {
	return s.subs[userID], nil
}

type fakeCache struct {
	entries map[string]string
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (c *fakeCache) Get(key string) (string, error) {
	value, ok := c.entries[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return value, nil
}

func (c *fakeCache) Set(key string, value interface{}, expiration time.Duration) error {
	c.entries[key] = value.(string)
	c.sets++
	return nil
}

func (c *fakeCache) Delete(key string) error {
	delete(c.entries, key)
	return nil
}

func TestResolver_Resolve(t *testing.T) {
	end := testNow.AddDate(0, 1, 0)
	source := &fakeSource{
		users: map[uint]models.User{7: {ID: 7}},
		subs: map[uint][]models.Subscription{
			7: {giftSub(models.SubscriptionStatusActive, &end)},
		},
	}
	resolver := NewResolver(source, nil)
	resolver.now = func() time.Time { return testNow }

	ent, err := resolver.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if ent.Source != SourceGift || !ent.IsActive {
		t.Fatalf("unexpected entitlement: %+v", ent)
	}
}

func TestResolver_UnknownUser(t *testing.T) {
	resolver := NewResolver(&fakeSource{users: map[uint]models.User{}}, nil)

	if _, err := resolver.Resolve(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Resolve error = %v, want ErrUserNotFound", err)
	}
}

func TestResolver_CachesResults(t *testing.T) {
	source := &fakeSource{users: map[uint]models.User{7: {ID: 7}}}
	cache := newFakeCache()
	resolver := NewResolver(source, cache)
	resolver.now = func() time.Time { return testNow }

	if _, err := resolver.Resolve(context.Background(), 7); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	if _, err := resolver.Resolve(context.Background(), 7); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if source.loads != 1 {
		t.Fatalf("expected cached resolve to skip the store, loads = %d", source.loads)
	}
}

func TestResolver_Invalidate(t *testing.T) {
	source := &fakeSource{users: map[uint]models.User{7: {ID: 7}}}
	cache := newFakeCache()
	resolver := NewResolver(source, cache)
	resolver.now = func() time.Time { return testNow }

	if _, err := resolver.Resolve(context.Background(), 7); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	resolver.Invalidate(7)

	if _, err := resolver.Resolve(context.Background(), 7); err != nil {
		t.Fatalf("resolve after invalidate failed: %v", err)
	}
	if source.loads != 2 {
		t.Fatalf("expected invalidate to force a reload, loads = %d", source.loads)
	}
}
