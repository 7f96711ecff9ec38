package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Davidayo16/ArtisanPro-server/pkg/redis"
)

const webhookScope = "paystack-webhook"

// WebhookGuard marks gateway deliveries as seen so redeliveries short-circuit
// before touching the database.
type WebhookGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewWebhookGuard(store redis.IdempotencyStore, ttl time.Duration) (*WebhookGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &WebhookGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether eventID was already seen, marking it otherwise.
func (g *WebhookGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(webhookScope, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook idempotency key: %w", err)
	}
	return !set, nil
}

// Release forgets eventID so a failed delivery can be retried by the gateway.
func (g *WebhookGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(webhookScope, eventID))
}
