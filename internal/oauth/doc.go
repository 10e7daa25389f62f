// Package oauth implements the gateway's own OAuth 2.1 authorization server:
// the authorization-code-with-PKCE flow that grants external AI clients
// scoped, time-limited access without exposing platform credentials.
//
// The flow is a state machine over single-use authorization codes. A code is
// bound at consent time to the exact redirect URI, PKCE challenge and scope
// requested; exchange consumes it atomically (two concurrent exchanges yield
// exactly one success) and marks it consumed even on verifier mismatch so a
// captured code cannot be brute-forced. Successful exchange materializes a
// revocable Connection and mints a short-lived JWT through the trust layer.
//
// This is deliberately not a general-purpose OAuth server: authorization_code
// is the only supported grant type.
package oauth
