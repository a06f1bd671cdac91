package counter

import (
	"context"
	"strconv"

	"github.com/vkazarin/creditgate/internal/pkg/cache"
)

const webhookOutcomesKey = "payments:counters:webhook"

// AddWebhookOutcome increments the counter for one processing outcome
// (credited, duplicate, rejected, checked, failed) in Redis. Counting is
// best-effort; callers ignore the error beyond logging.
func AddWebhookOutcome(outcome string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookOutcomesKey, outcome, 1).Err()
}

// WebhookOutcomes returns all outcome counters.
func WebhookOutcomes() (map[string]int64, error) {
	ctx := context.Background()
	raw, err := cache.GetClient().HGetAll(ctx, webhookOutcomesKey).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(raw))
	for outcome, count := range raw {
		if n, err := strconv.ParseInt(count, 10, 64); err == nil {
			result[outcome] = n
		}
	}
	return result, nil
}

// Reset clears all outcome counters (admin use).
func Reset() error {
	ctx := context.Background()
	return cache.GetClient().Del(ctx, webhookOutcomesKey).Err()
}
