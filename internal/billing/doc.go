// Package billing maintains the read-through subscription-status cache.
//
// State is derived exclusively from billing-provider webhook events; nothing
// on the request path ever calls the provider. Webhook payloads are
// authenticated with a timestamped HMAC (constant-time comparison, 5 minute
// freshness window) before any state mutation, and processing is idempotent
// per event id so redelivery cannot double-apply.
package billing
