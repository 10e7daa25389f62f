// Package vault implements encrypted at-rest storage for per-user,
// per-platform credential material.
//
// Credentials are an explicit tagged union (cookie pair, OAuth tokens, or
// public username) serialized through one canonical envelope and sealed with
// AES-256-GCM before touching the underlying store. The encryption key is
// distinct from every JWT signing secret. Raw credential bytes are only ever
// decrypted inside an adapter's request path; status checks go through a
// plaintext metadata record instead.
//
// The vault knows nothing about platform semantics. It stores and returns
// opaque credential values keyed by (user, platform).
package vault
