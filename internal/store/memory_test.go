package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	err := ms.Put(ctx, NamespaceLeagues, "user-1/123", []byte("payload"), 0)
	require.NoError(t, err)

	got, err := ms.Get(ctx, NamespaceLeagues, "user-1/123")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// Same key in a different namespace is a different record.
	_, err = ms.Get(ctx, NamespaceCredentials, "user-1/123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	require.NoError(t, ms.Put(ctx, NamespaceAuthCodes, "code-1", []byte("x"), 10*time.Millisecond))

	got, err := ms.Get(ctx, NamespaceAuthCodes, "code-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	time.Sleep(25 * time.Millisecond)

	// Expired records read as absent even before the sweeper runs.
	_, err = ms.Get(ctx, NamespaceAuthCodes, "code-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	require.NoError(t, ms.Put(ctx, NamespaceConnections, "conn-1", []byte("x"), 0))
	require.NoError(t, ms.Delete(ctx, NamespaceConnections, "conn-1"))

	_, err := ms.Get(ctx, NamespaceConnections, "conn-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, ms.Delete(ctx, NamespaceConnections, "conn-1"))
}

func TestMemoryStore_ListPrefix(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	require.NoError(t, ms.Put(ctx, NamespaceConnections, "user-1/a", []byte("1"), 0))
	require.NoError(t, ms.Put(ctx, NamespaceConnections, "user-1/b", []byte("2"), 0))
	require.NoError(t, ms.Put(ctx, NamespaceConnections, "user-2/c", []byte("3"), 0))

	got, err := ms.List(ctx, NamespaceConnections, "user-1/")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []byte("1"), got["user-1/a"])
	assert.Equal(t, []byte("2"), got["user-1/b"])
}

func TestMemoryStore_UpdateAtomicConsume(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	require.NoError(t, ms.Put(ctx, NamespaceAuthCodes, "code-1", []byte("fresh"), time.Minute))

	errConsumed := errors.New("already consumed")
	consume := func() error {
		return ms.Update(ctx, NamespaceAuthCodes, "code-1", func(current []byte) ([]byte, error) {
			if string(current) != "fresh" {
				return nil, errConsumed
			}
			return []byte("consumed"), nil
		})
	}

	// Many concurrent consumers: exactly one must win.
	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- consume()
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, errConsumed)
			failures++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, failures)
}

func TestMemoryStore_UpdatePreservesTTL(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	require.NoError(t, ms.Put(ctx, NamespaceAuthCodes, "code-1", []byte("a"), 30*time.Millisecond))
	require.NoError(t, ms.Update(ctx, NamespaceAuthCodes, "code-1", func(current []byte) ([]byte, error) {
		return []byte("b"), nil
	}))

	time.Sleep(50 * time.Millisecond)

	// The update must not have extended the record's life.
	_, err := ms.Get(ctx, NamespaceAuthCodes, "code-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateAbsentKey(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	err := ms.Update(ctx, NamespaceSubscriptions, "cust-1", func(current []byte) ([]byte, error) {
		assert.Nil(t, current)
		return []byte("created"), nil
	})
	require.NoError(t, err)

	got, err := ms.Get(ctx, NamespaceSubscriptions, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("created"), got)
}
