// Package trust is the authorization boundary between external AI clients
// and the gateway.
//
// It mints short-lived HS256 JWTs carrying subject, plan and scope claims,
// and validates inbound bearer tokens against a rotating keyring. Rotation
// follows a fixed schedule (90 days) and retires rather than destroys the
// outgoing key: a retired key keeps verifying signatures for a 24 hour grace
// window, so rotation never invalidates in-flight requests. At most four key
// generations are retained; anything older is unverifiable.
//
// Lifecycle events are delivered to an injected Notifier rather than a
// global listener registry.
package trust
