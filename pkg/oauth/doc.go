// Package oauth provides shared OAuth 2.1 PKCE primitives used by both the
// authorization server (internal/oauth) and its tests acting as a client.
//
// It covers verifier/challenge generation, challenge computation for the
// S256 and plain methods, constant-time challenge verification, and state
// parameter generation. Nothing in this package touches storage or HTTP.
package oauth
