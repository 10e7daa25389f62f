package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leaguelink/internal/api"
	"leaguelink/internal/store"
	"leaguelink/pkg/logging"
)

// ErrDecrypt is returned when a stored credential exists but cannot be
// decrypted. Callers must treat this differently from not-found: a decrypt
// failure means the user should re-link the platform, not that nothing was
// ever configured.
var ErrDecrypt = errors.New("vault: credential decryption failed")

// keySize is the AES-256 key size in bytes.
const keySize = 32

// Vault stores per-user, per-platform credentials encrypted at rest.
//
// Credential bytes are sealed with AES-256-GCM under a key that is distinct
// from any JWT signing secret. Decryption happens only on Fetch; a separate
// plaintext metadata record supports cheap status checks.
type Vault struct {
	store store.Store
	aead  cipher.AEAD
}

// New creates a Vault. key must be exactly 32 bytes (AES-256).
func New(st store.Store, key []byte) (*Vault, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Vault{store: st, aead: aead}, nil
}

// Store validates, encrypts and persists a credential, overwriting any
// previous credential for the same (user, platform). The metadata record is
// updated in the same call.
func (v *Vault) Store(ctx context.Context, userID, platform string, cred *Credential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("invalid credential: %w", err)
	}

	plaintext, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	sealed, err := v.seal(plaintext)
	if err != nil {
		return fmt.Errorf("encrypting credential: %w", err)
	}

	key := credentialKey(userID, platform)
	if err := v.store.Put(ctx, store.NamespaceCredentials, key, sealed, 0); err != nil {
		return fmt.Errorf("persisting credential: %w", err)
	}

	meta := Metadata{
		HasCredential: true,
		LastUpdated:   time.Now().UTC(),
		HasEmail:      cred.Email != "",
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding credential metadata: %w", err)
	}
	if err := v.store.Put(ctx, store.NamespaceCredentialMeta, key, metaBytes, 0); err != nil {
		return fmt.Errorf("persisting credential metadata: %w", err)
	}

	logging.Debug("Vault", "stored %s credential for platform %s", cred.Kind, platform)
	logging.Audit(logging.AuditEvent{Action: "credential_store", Outcome: "success", Subject: userID, Target: platform})

	return nil
}

// Fetch decrypts and returns the credential for (user, platform).
// Returns a NotFoundError when nothing is stored, and ErrDecrypt when a
// record exists but fails authentication or decoding.
func (v *Vault) Fetch(ctx context.Context, userID, platform string) (*Credential, error) {
	key := credentialKey(userID, platform)

	sealed, err := v.store.Get(ctx, store.NamespaceCredentials, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, api.NewNotFoundError("credential", platform)
		}
		return nil, fmt.Errorf("reading credential: %w", err)
	}

	plaintext, err := v.open(sealed)
	if err != nil {
		logging.Error("Vault", err, "failed to decrypt credential for platform %s", platform)
		return nil, fmt.Errorf("%w: %s", ErrDecrypt, platform)
	}

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return nil, fmt.Errorf("%w: malformed plaintext for %s", ErrDecrypt, platform)
	}

	return &cred, nil
}

// Delete removes the credential and its metadata. Deleting an absent
// credential is not an error.
func (v *Vault) Delete(ctx context.Context, userID, platform string) error {
	key := credentialKey(userID, platform)

	if err := v.store.Delete(ctx, store.NamespaceCredentials, key); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	if err := v.store.Delete(ctx, store.NamespaceCredentialMeta, key); err != nil {
		return fmt.Errorf("deleting credential metadata: %w", err)
	}

	logging.Audit(logging.AuditEvent{Action: "credential_delete", Outcome: "success", Subject: userID, Target: platform})

	return nil
}

// Status returns the decrypt-free metadata record. An absent credential
// yields a zero-valued Metadata, not an error.
func (v *Vault) Status(ctx context.Context, userID, platform string) (Metadata, error) {
	metaBytes, err := v.store.Get(ctx, store.NamespaceCredentialMeta, credentialKey(userID, platform))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Metadata{}, nil
		}
		return Metadata{}, fmt.Errorf("reading credential metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decoding credential metadata: %w", err)
	}

	return meta, nil
}

// seal encrypts plaintext, prepending the random nonce to the ciphertext.
func (v *Vault) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open splits the nonce off sealed and decrypts the remainder.
func (v *Vault) open(sealed []byte) ([]byte, error) {
	ns := v.aead.NonceSize()
	if len(sealed) < ns {
		return nil, fmt.Errorf("sealed credential shorter than nonce")
	}

	return v.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
}

func credentialKey(userID, platform string) string {
	return userID + "/" + platform
}
