package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or its record has expired.
var ErrNotFound = errors.New("store: key not found")

// Namespaces used across the gateway. Centralized so two components can
// never collide on a key by accident.
const (
	NamespaceCredentials    = "credentials"
	NamespaceCredentialMeta = "credential_meta"
	NamespaceLeagues        = "leagues"
	NamespaceSigningKeys    = "signing_keys"
	NamespaceAuthCodes      = "auth_codes"
	NamespaceConnections    = "connections"
	NamespaceSubscriptions  = "subscriptions"
	NamespaceWebhookEvents  = "webhook_events"
)

// Store is the key-value persistence boundary for all gateway state.
//
// Every operation is namespaced; a key only exists within its namespace.
// Values are opaque bytes, callers own serialization. A zero TTL means the
// record does not expire.
//
// Update is the atomic read-modify-write primitive: the provided function is
// invoked with the current value (nil if absent) while the key is exclusively
// held, and its return value is written back. This is what makes single-use
// authorization-code consumption exclusive under concurrent exchanges.
type Store interface {
	// Put writes a value. A ttl of zero means no expiry.
	Put(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error

	// Get reads a value. Returns ErrNotFound for absent or expired keys.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// List returns all live values in a namespace whose key starts with
	// prefix, keyed by full key.
	List(ctx context.Context, namespace, prefix string) (map[string][]byte, error)

	// Update atomically applies fn to the current value of key. fn receives
	// nil when the key is absent or expired. If fn returns an error the
	// record is left untouched and the error is returned unwrapped. The
	// returned value replaces the record, keeping its remaining TTL.
	Update(ctx context.Context, namespace, key string, fn func(current []byte) ([]byte, error)) error
}
