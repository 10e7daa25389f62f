package trust

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaguelink/internal/store"
)

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(ms.Stop)

	kr, err := NewKeyring(context.Background(), ms)
	require.NoError(t, err)
	return kr
}

func activeCount(kr *Keyring) int {
	n := 0
	for _, k := range kr.Keys() {
		if k.Status == KeyStatusActive {
			n++
		}
	}
	return n
}

func TestNewKeyring_CreatesInitialKey(t *testing.T) {
	kr := newTestKeyring(t)

	key, err := kr.Active()
	require.NoError(t, err)
	assert.NotEmpty(t, key.ID)
	assert.Len(t, key.Secret, secretSize)
	assert.Equal(t, 1, activeCount(kr))
}

func TestNewKeyring_LoadsPersistedRing(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Stop()
	ctx := context.Background()

	kr1, err := NewKeyring(ctx, ms)
	require.NoError(t, err)
	key1, err := kr1.Active()
	require.NoError(t, err)

	kr2, err := NewKeyring(ctx, ms)
	require.NoError(t, err)
	key2, err := kr2.Active()
	require.NoError(t, err)

	assert.Equal(t, key1.ID, key2.ID)
	assert.Equal(t, key1.Secret, key2.Secret)
}

func TestRotate_RetiresPreviousActive(t *testing.T) {
	kr := newTestKeyring(t)
	before, err := kr.Active()
	require.NoError(t, err)

	res, err := kr.Rotate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.ID, res.RetiredKeyID)
	assert.NotEqual(t, before.ID, res.NewKeyID)

	assert.Equal(t, 1, activeCount(kr))

	var retired *SigningKey
	for _, k := range kr.Keys() {
		if k.ID == before.ID {
			k := k
			retired = &k
		}
	}
	require.NotNil(t, retired)
	assert.Equal(t, KeyStatusRetired, retired.Status)
	require.NotNil(t, retired.RetiredAt)
	assert.WithinDuration(t, time.Now(), *retired.RetiredAt, 5*time.Second)
}

func TestRotate_HistoryCappedAtFour(t *testing.T) {
	kr := newTestKeyring(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		// Spread CreatedAt so truncation by recency is deterministic.
		time.Sleep(time.Millisecond)
		_, err := kr.Rotate(ctx)
		require.NoError(t, err)
	}

	keys := kr.Keys()
	assert.LessOrEqual(t, len(keys), maxKeyHistory)
	assert.Equal(t, 1, activeCount(kr))
}

func TestVerificationKey_GraceWindow(t *testing.T) {
	kr := newTestKeyring(t)
	ctx := context.Background()

	old, err := kr.Active()
	require.NoError(t, err)
	_, err = kr.Rotate(ctx)
	require.NoError(t, err)

	// Retired just now: inside the grace window.
	_, err = kr.VerificationKey(old.ID)
	assert.NoError(t, err)

	// Retired 23 hours ago: still verifies.
	setRetiredAt(kr, old.ID, time.Now().Add(-23*time.Hour))
	_, err = kr.VerificationKey(old.ID)
	assert.NoError(t, err)

	// Retired 25 hours ago: rejected.
	setRetiredAt(kr, old.ID, time.Now().Add(-25*time.Hour))
	_, err = kr.VerificationKey(old.ID)
	assert.Error(t, err)
}

func TestVerificationKey_UnknownAndDeprecated(t *testing.T) {
	kr := newTestKeyring(t)

	_, err := kr.VerificationKey("no-such-key")
	assert.Error(t, err)

	kr.mu.Lock()
	kr.keys[0].Status = KeyStatusDeprecated
	kr.mu.Unlock()

	_, err = kr.VerificationKey(kr.Keys()[0].ID)
	assert.Error(t, err)
}

func TestShouldRotate(t *testing.T) {
	kr := newTestKeyring(t)
	assert.False(t, kr.ShouldRotate())

	// Backdate the active key beyond the rotation period.
	kr.mu.Lock()
	for i := range kr.keys {
		if kr.keys[i].Status == KeyStatusActive {
			kr.keys[i].CreatedAt = time.Now().Add(-rotationPeriod - time.Hour)
		}
	}
	kr.mu.Unlock()

	assert.True(t, kr.ShouldRotate())
}

// setRetiredAt rewrites a key's retirement time in place for grace-window tests.
func setRetiredAt(kr *Keyring, keyID string, at time.Time) {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	for i := range kr.keys {
		if kr.keys[i].ID == keyID {
			retired := at
			kr.keys[i].RetiredAt = &retired
		}
	}
}
