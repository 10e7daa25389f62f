package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// record is a stored value with optional expiry.
type record struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (r *record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}

// MemoryStore is a thread-safe in-memory Store implementation.
//
// It is the backing store for single-process deployments and the injection
// point for tests. A background goroutine sweeps expired records; reads also
// treat expired records as absent, so correctness does not depend on sweep
// timing.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*record

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
}

// NewMemoryStore creates a new in-memory store and starts its expiry sweeper.
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:          make(map[string]map[string]*record),
		sweepInterval: 5 * time.Minute,
		stopSweep:     make(chan struct{}),
	}

	go ms.sweepLoop()

	return ms
}

// Put writes a value. A ttl of zero means no expiry.
func (ms *MemoryStore) Put(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	rec := &record{value: append([]byte(nil), value...)}
	if ttl > 0 {
		rec.expiresAt = time.Now().Add(ttl)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ns, ok := ms.data[namespace]
	if !ok {
		ns = make(map[string]*record)
		ms.data[namespace] = ns
	}
	ns[key] = rec

	return nil
}

// Get reads a value. Returns ErrNotFound for absent or expired keys.
func (ms *MemoryStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	rec, ok := ms.data[namespace][key]
	if !ok || rec.expired(time.Now()) {
		return nil, ErrNotFound
	}

	return append([]byte(nil), rec.value...), nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (ms *MemoryStore) Delete(ctx context.Context, namespace, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.data[namespace], key)
	return nil
}

// List returns all live values in a namespace whose key starts with prefix.
func (ms *MemoryStore) List(ctx context.Context, namespace, prefix string) (map[string][]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	out := make(map[string][]byte)
	for key, rec := range ms.data[namespace] {
		if !strings.HasPrefix(key, prefix) || rec.expired(now) {
			continue
		}
		out[key] = append([]byte(nil), rec.value...)
	}

	return out, nil
}

// Update atomically applies fn to the current value of key while holding the
// store's write lock, which gives concurrent callers check-and-set semantics.
func (ms *MemoryStore) Update(ctx context.Context, namespace, key string, fn func(current []byte) ([]byte, error)) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var current []byte
	var remaining time.Duration

	if rec, ok := ms.data[namespace][key]; ok && !rec.expired(time.Now()) {
		current = append([]byte(nil), rec.value...)
		if !rec.expiresAt.IsZero() {
			remaining = time.Until(rec.expiresAt)
		}
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	rec := &record{value: append([]byte(nil), next...)}
	if remaining > 0 {
		rec.expiresAt = time.Now().Add(remaining)
	}

	ns, ok := ms.data[namespace]
	if !ok {
		ns = make(map[string]*record)
		ms.data[namespace] = ns
	}
	ns[key] = rec

	return nil
}

// Stop stops the background expiry sweeper. Safe to call more than once.
func (ms *MemoryStore) Stop() {
	ms.stopOnce.Do(func() {
		close(ms.stopSweep)
	})
}

func (ms *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(ms.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.sweep()
		case <-ms.stopSweep:
			return
		}
	}
}

func (ms *MemoryStore) sweep() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for _, ns := range ms.data {
		for key, rec := range ns {
			if rec.expired(now) {
				delete(ns, key)
			}
		}
	}
}
