package trust

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"leaguelink/internal/store"
	"leaguelink/pkg/logging"
)

// KeyStatus is the lifecycle state of a signing key.
type KeyStatus string

const (
	// KeyStatusActive marks the single key used for signing new tokens.
	KeyStatusActive KeyStatus = "active"

	// KeyStatusRetired marks a key replaced by rotation. Retired keys still
	// verify tokens during the grace window.
	KeyStatusRetired KeyStatus = "retired"

	// KeyStatusDeprecated marks a key that must never verify anything.
	// Keys pruned from history are deprecated by omission.
	KeyStatusDeprecated KeyStatus = "deprecated"
)

const (
	// rotationPeriod is how long a key stays active before rotation is due.
	rotationPeriod = 90 * 24 * time.Hour

	// graceWindow is how long a retired key keeps verifying tokens. Bounds
	// security exposure while keeping rotation invisible to in-flight
	// clients.
	graceWindow = 24 * time.Hour

	// maxKeyHistory caps the keyring. Older generations are pruned and
	// thereby become unverifiable.
	maxKeyHistory = 4

	// secretSize is the HMAC secret size in bytes.
	secretSize = 32

	// keyringStoreKey is the single record holding the serialized keyring.
	keyringStoreKey = "keyring"
)

// SigningKey is one generation of JWT signing material.
type SigningKey struct {
	ID        string     `json:"id"`
	Secret    []byte     `json:"secret"`
	Status    KeyStatus  `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
}

// Keyring manages the signing-key history: one active key, up to three
// retired generations, persisted through the store so restarts keep the
// trust window intact.
//
// Verification never blocks on rotation: lookups take a read lock while
// rotation takes the write lock only to swap the in-memory slice after the
// store write succeeds.
type Keyring struct {
	mu    sync.RWMutex
	keys  []SigningKey
	store store.Store
}

// NewKeyring loads the persisted keyring, rotating immediately when no key
// exists yet so the ring always holds an active key.
func NewKeyring(ctx context.Context, st store.Store) (*Keyring, error) {
	kr := &Keyring{store: st}

	raw, err := st.Get(ctx, store.NamespaceSigningKeys, keyringStoreKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if _, err := kr.Rotate(ctx); err != nil {
			return nil, fmt.Errorf("creating initial signing key: %w", err)
		}
		return kr, nil
	case err != nil:
		return nil, fmt.Errorf("loading keyring: %w", err)
	}

	var keys []SigningKey
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decoding keyring: %w", err)
	}

	kr.keys = keys
	return kr, nil
}

// Active returns the current signing key.
func (kr *Keyring) Active() (SigningKey, error) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()

	for _, k := range kr.keys {
		if k.Status == KeyStatusActive {
			return k, nil
		}
	}

	return SigningKey{}, errors.New("keyring has no active key")
}

// VerificationKey resolves a key id for signature verification.
// A key verifies if it is active, or retired less than the grace window ago.
// Deprecated or pruned keys never verify.
func (kr *Keyring) VerificationKey(keyID string) (SigningKey, error) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()

	for _, k := range kr.keys {
		if k.ID != keyID {
			continue
		}
		switch k.Status {
		case KeyStatusActive:
			return k, nil
		case KeyStatusRetired:
			if k.RetiredAt != nil && time.Since(*k.RetiredAt) < graceWindow {
				return k, nil
			}
			return SigningKey{}, fmt.Errorf("key %s retired outside grace window", keyID)
		default:
			return SigningKey{}, fmt.Errorf("key %s is deprecated", keyID)
		}
	}

	return SigningKey{}, fmt.Errorf("unknown key id %s", keyID)
}

// ShouldRotate reports whether the active key is older than the rotation
// period. An empty ring always rotates.
func (kr *Keyring) ShouldRotate() bool {
	kr.mu.RLock()
	defer kr.mu.RUnlock()

	for _, k := range kr.keys {
		if k.Status == KeyStatusActive {
			return time.Since(k.CreatedAt) > rotationPeriod
		}
	}

	return true
}

// RotationResult describes a completed rotation.
type RotationResult struct {
	NewKeyID     string
	RetiredKeyID string // empty on the very first rotation
}

// Rotate retires the current active key, appends a fresh one and prunes
// history beyond maxKeyHistory generations. The new ring is persisted before
// the in-memory swap, so a failed store write leaves verification untouched.
func (kr *Keyring) Rotate(ctx context.Context) (RotationResult, error) {
	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return RotationResult{}, fmt.Errorf("generating key secret: %w", err)
	}

	now := time.Now().UTC()
	newKey := SigningKey{
		ID:        uuid.NewString(),
		Secret:    secret,
		Status:    KeyStatusActive,
		CreatedAt: now,
	}

	kr.mu.Lock()
	defer kr.mu.Unlock()

	var retiredID string
	next := make([]SigningKey, 0, len(kr.keys)+1)
	for _, k := range kr.keys {
		if k.Status == KeyStatusActive {
			retired := now
			k.Status = KeyStatusRetired
			k.RetiredAt = &retired
			retiredID = k.ID
		}
		next = append(next, k)
	}
	next = append(next, newKey)

	// Newest first, keep at most maxKeyHistory generations.
	sort.Slice(next, func(i, j int) bool {
		return next[i].CreatedAt.After(next[j].CreatedAt)
	})
	if len(next) > maxKeyHistory {
		next = next[:maxKeyHistory]
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return RotationResult{}, fmt.Errorf("encoding keyring: %w", err)
	}
	if err := kr.store.Put(ctx, store.NamespaceSigningKeys, keyringStoreKey, raw, 0); err != nil {
		return RotationResult{}, fmt.Errorf("persisting keyring: %w", err)
	}

	kr.keys = next

	if retiredID != "" {
		logging.Info("Trust", "rotated signing key: new=%s retired=%s", newKey.ID, retiredID)
	} else {
		logging.Info("Trust", "created initial signing key %s", newKey.ID)
	}

	return RotationResult{NewKeyID: newKey.ID, RetiredKeyID: retiredID}, nil
}

// Keys returns a snapshot of the ring, newest first. Secrets are included;
// callers must not log them.
func (kr *Keyring) Keys() []SigningKey {
	kr.mu.RLock()
	defer kr.mu.RUnlock()

	out := make([]SigningKey, len(kr.keys))
	copy(out, kr.keys)
	return out
}
