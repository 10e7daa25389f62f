package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leaguelink/internal/store"
	"leaguelink/pkg/logging"
)

const (
	// cacheTTL bounds how long a subscription record is served without any
	// fresh webhook write. Every write refreshes it.
	cacheTTL = 24 * time.Hour

	// eventDedupTTL is how long processed webhook event ids are remembered.
	eventDedupTTL = 24 * time.Hour
)

// Cache is the read-through subscription-status cache consulted to gate
// plan and quota decisions.
type Cache struct {
	store store.Store
}

// NewCache creates a subscription cache over the given store.
func NewCache(st store.Store) *Cache {
	return &Cache{store: st}
}

// Apply upserts the subscription record for an event's customer. Processing
// is idempotent per event id: a redelivered event returns without touching
// state.
func (c *Cache) Apply(ctx context.Context, ev Event) error {
	if ev.EventID == "" || ev.CustomerID == "" {
		return fmt.Errorf("billing event requires id and customer_id")
	}

	_, err := c.store.Get(ctx, store.NamespaceWebhookEvents, ev.EventID)
	if err == nil {
		logging.Debug("Billing", "skipping duplicate webhook event %s", ev.EventID)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking webhook event id: %w", err)
	}

	status := SubscriptionStatus{
		CustomerID:        ev.CustomerID,
		Status:            ev.Status,
		CurrentPeriodEnd:  time.Unix(ev.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: ev.CancelAtPeriodEnd,
		LastUpdated:       time.Now().UTC(),
	}

	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding subscription status: %w", err)
	}
	if err := c.store.Put(ctx, store.NamespaceSubscriptions, ev.CustomerID, raw, cacheTTL); err != nil {
		return fmt.Errorf("persisting subscription status: %w", err)
	}

	// Mark the event seen only after the upsert lands, so a failed write
	// is retried by the provider instead of being swallowed as a
	// duplicate. A concurrent redelivery applying the same event twice
	// just rewrites identical state.
	if err := c.store.Put(ctx, store.NamespaceWebhookEvents, ev.EventID, []byte("seen"), eventDedupTTL); err != nil {
		return fmt.Errorf("recording webhook event id: %w", err)
	}

	logging.Info("Billing", "subscription for customer %s is now %s", ev.CustomerID, ev.Status)
	return nil
}

// Get returns the cached status for a customer, or false when none is cached.
func (c *Cache) Get(ctx context.Context, customerID string) (SubscriptionStatus, bool, error) {
	raw, err := c.store.Get(ctx, store.NamespaceSubscriptions, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SubscriptionStatus{}, false, nil
		}
		return SubscriptionStatus{}, false, fmt.Errorf("reading subscription status: %w", err)
	}

	var status SubscriptionStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return SubscriptionStatus{}, false, fmt.Errorf("decoding subscription status: %w", err)
	}

	return status, true, nil
}

// IsActive reports whether a customer is entitled to paid features:
// status active or trialing, with a current period that has not ended.
// Unknown customers are not active.
func (c *Cache) IsActive(ctx context.Context, customerID string) bool {
	status, ok, err := c.Get(ctx, customerID)
	if err != nil {
		logging.Error("Billing", err, "subscription lookup failed for customer %s", customerID)
		return false
	}
	if !ok {
		return false
	}

	if status.Status != StatusActive && status.Status != StatusTrialing {
		return false
	}

	return status.CurrentPeriodEnd.After(time.Now())
}
