package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguelink/internal/store"
)

var testSecret = []byte("whsec_test_secret")

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(ms.Stop)
	return NewCache(ms)
}

func sign(t *testing.T, secret []byte, ts int64, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func activeEvent(id, customer string) Event {
	return Event{
		EventID:          id,
		Type:             "customer.subscription.updated",
		CustomerID:       customer,
		Status:           StatusActive,
		CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour).Unix(),
	}
}

func TestCache_ApplyAndIsActive(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Apply(ctx, activeEvent("evt-1", "cus-1")))
	assert.True(t, c.IsActive(ctx, "cus-1"))

	status, ok, err := c.Get(ctx, "cus-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusActive, status.Status)
	assert.WithinDuration(t, time.Now(), status.LastUpdated, 5*time.Second)
}

func TestCache_IsActiveStates(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name   string
		ev     Event
		active bool
	}{
		{"active current", Event{EventID: "e1", CustomerID: "c1", Status: StatusActive, CurrentPeriodEnd: future}, true},
		{"trialing current", Event{EventID: "e2", CustomerID: "c2", Status: StatusTrialing, CurrentPeriodEnd: future}, true},
		{"past_due", Event{EventID: "e3", CustomerID: "c3", Status: StatusPastDue, CurrentPeriodEnd: future}, false},
		{"unpaid", Event{EventID: "e4", CustomerID: "c4", Status: StatusUnpaid, CurrentPeriodEnd: future}, false},
		{"cancelled", Event{EventID: "e5", CustomerID: "c5", Status: StatusCancelled, CurrentPeriodEnd: future}, false},
		{"active but period ended", Event{EventID: "e6", CustomerID: "c6", Status: StatusActive, CurrentPeriodEnd: past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, c.Apply(ctx, tt.ev))
			assert.Equal(t, tt.active, c.IsActive(ctx, tt.ev.CustomerID))
		})
	}

	assert.False(t, c.IsActive(ctx, "cus-unknown"))
}

func TestCache_IdempotentPerEventID(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Apply(ctx, activeEvent("evt-1", "cus-1")))

	// Redelivery of the same event id with different content is ignored.
	redelivered := activeEvent("evt-1", "cus-1")
	redelivered.Status = StatusCancelled
	require.NoError(t, c.Apply(ctx, redelivered))

	status, ok, err := c.Get(ctx, "cus-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusActive, status.Status)

	// A new event id does apply.
	cancelled := activeEvent("evt-2", "cus-1")
	cancelled.Status = StatusCancelled
	require.NoError(t, c.Apply(ctx, cancelled))
	assert.False(t, c.IsActive(ctx, "cus-1"))
}

// failingPutStore fails Put calls into one namespace until drained, to model
// a storage hiccup mid-apply.
type failingPutStore struct {
	store.Store
	failNamespace string
	failures      int
}

func (s *failingPutStore) Put(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if namespace == s.failNamespace && s.failures > 0 {
		s.failures--
		return fmt.Errorf("simulated storage failure")
	}
	return s.Store.Put(ctx, namespace, key, value, ttl)
}

func TestCache_FailedApplyIsRetriable(t *testing.T) {
	ms := store.NewMemoryStore()
	t.Cleanup(ms.Stop)
	fs := &failingPutStore{Store: ms, failNamespace: store.NamespaceSubscriptions, failures: 1}
	c := NewCache(fs)
	ctx := context.Background()

	ev := activeEvent("evt-1", "cus-1")
	require.Error(t, c.Apply(ctx, ev))

	// The failed attempt must not have marked the event seen, or the
	// provider's retry would be dropped as a duplicate.
	_, err := ms.Get(ctx, store.NamespaceWebhookEvents, "evt-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, c.Apply(ctx, ev))
	assert.True(t, c.IsActive(ctx, "cus-1"))

	// And now the redelivery is deduplicated.
	redelivered := activeEvent("evt-1", "cus-1")
	redelivered.Status = StatusCancelled
	require.NoError(t, c.Apply(ctx, redelivered))
	assert.True(t, c.IsActive(ctx, "cus-1"))
}

func TestWebhook_ValidSignatureApplies(t *testing.T) {
	c := newTestCache(t)
	h := NewWebhookHandler(c, testSecret)

	body, err := json.Marshal(activeEvent("evt-1", "cus-1"))
	require.NoError(t, err)

	// 100 seconds old: inside the window.
	ts := time.Now().Add(-100 * time.Second).Unix()
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(body))
	req.Header.Set("Signature", sign(t, testSecret, ts, body))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.IsActive(context.Background(), "cus-1"))
}

func TestWebhook_StaleTimestampRejected(t *testing.T) {
	c := newTestCache(t)
	h := NewWebhookHandler(c, testSecret)

	body, err := json.Marshal(activeEvent("evt-1", "cus-1"))
	require.NoError(t, err)

	// 301 seconds old: rejected regardless of signature correctness.
	ts := time.Now().Add(-301 * time.Second).Unix()
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(body))
	req.Header.Set("Signature", sign(t, testSecret, ts, body))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, c.IsActive(context.Background(), "cus-1"))
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	c := newTestCache(t)
	h := NewWebhookHandler(c, testSecret)

	body, err := json.Marshal(activeEvent("evt-1", "cus-1"))
	require.NoError(t, err)

	ts := time.Now().Unix()
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(body))
	req.Header.Set("Signature", sign(t, []byte("wrong-secret"), ts, body))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, c.IsActive(context.Background(), "cus-1"))
}

func TestWebhook_TamperedBodyRejected(t *testing.T) {
	c := newTestCache(t)
	h := NewWebhookHandler(c, testSecret)

	body, err := json.Marshal(activeEvent("evt-1", "cus-1"))
	require.NoError(t, err)
	ts := time.Now().Unix()
	sig := sign(t, testSecret, ts, body)

	tampered := bytes.Replace(body, []byte("cus-1"), []byte("cus-2"), 1)
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewReader(tampered))
	req.Header.Set("Signature", sig)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseSignatureHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"valid", "t=1700000000,v1=deadbeef", false},
		{"valid with spaces", "t=1700000000, v1=deadbeef", false},
		{"empty", "", true},
		{"missing v1", "t=1700000000", true},
		{"missing t", "v1=deadbeef", true},
		{"bad timestamp", "t=abc,v1=deadbeef", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseSignatureHeader(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
