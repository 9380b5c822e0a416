package counter

import (
	"context"
	"strconv"

	"github.com/JulianBeck/CastDeck/internal/pkg/cache"
)

const (
	webhookEventsKey   = "webhook:counters:events"
	webhookFailuresKey = "webhook:counters:failures"
)

// AddWebhookEvent increments the per-type counter for a processed webhook
// delivery in Redis. Best effort: the caller ignores the error, a lost
// increment never blocks an acknowledgement.
func AddWebhookEvent(eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookEventsKey, eventType, 1).Err()
}

// AddWebhookFailure increments the per-type failure counter.
func AddWebhookFailure(eventType string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookFailuresKey, eventType, 1).Err()
}

// WebhookEventTotals returns the processed counts per event type.
func WebhookEventTotals() (map[string]int64, error) {
	return readTotals(webhookEventsKey)
}

// WebhookFailureTotals returns the failure counts per event type.
func WebhookFailureTotals() (map[string]int64, error) {
	return readTotals(webhookFailuresKey)
}

func readTotals(key string) (map[string]int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64, len(data))
	for eventType, raw := range data {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		totals[eventType] = count
	}
	return totals, nil
}
