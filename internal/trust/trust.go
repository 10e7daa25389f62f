package trust

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leaguelink/internal/api"
	"leaguelink/pkg/logging"
)

// Plan is the billing plan carried in token claims.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)

// ScopeFantasyRead is the scope required for all fantasy tool calls.
const ScopeFantasyRead = "fantasy.read"

// ScopeCredentialsRaw authorizes reading decrypted credentials back out of
// the vault. Issued only to trusted internal callers, never through the
// public consent flow.
const ScopeCredentialsRaw = "credentials.raw"

// rotationCheckInterval is how often the rotation loop re-evaluates
// ShouldRotate. The rotation period itself is 90 days; checking hourly keeps
// the drift negligible.
const rotationCheckInterval = time.Hour

// Claims is the JWT payload minted by the trust layer.
type Claims struct {
	Plan  Plan   `json:"plan"`
	Email string `json:"email,omitempty"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// HasScope reports whether the space-separated scope claim contains want.
func (c *Claims) HasScope(want string) bool {
	for _, s := range strings.Fields(c.Scope) {
		if s == want {
			return true
		}
	}
	return false
}

// Notifier receives trust-layer lifecycle events. Injected at construction
// instead of a global listener registry so tests observe events
// deterministically.
type Notifier interface {
	KeyRotated(newKeyID, retiredKeyID string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) KeyRotated(newKeyID, retiredKeyID string) {}

// Trust mints and validates the gateway's own JWTs and owns signing-key
// rotation. Tokens are HS256 with the signing key id in the header.
type Trust struct {
	ring     *Keyring
	issuer   string
	audience string
	notifier Notifier
}

// New creates a Trust layer over the given keyring. notifier may be nil.
func New(ring *Keyring, issuer, audience string, notifier Notifier) *Trust {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Trust{ring: ring, issuer: issuer, audience: audience, notifier: notifier}
}

// Mint issues a short-lived token for the given subject.
func (t *Trust) Mint(userID string, plan Plan, email, scope string, ttl time.Duration) (string, error) {
	key, err := t.ring.Active()
	if err != nil {
		return "", fmt.Errorf("minting token: %w", err)
	}

	now := time.Now()
	claims := &Claims{
		Plan:  plan,
		Email: email,
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = key.ID

	signed, err := token.SignedString(key.Secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	logging.Audit(logging.AuditEvent{Action: "token_mint", Outcome: "success", Subject: userID, Target: key.ID})

	return signed, nil
}

// Validate parses and verifies a token. The signature must resolve through
// the keyring (active key, or retired within the grace window), and exp,
// aud and iss must all check out. Every failure maps to AuthFailed; the
// reason never contains token material.
func (t *Trust) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, t.verificationKeyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		logging.Debug("Trust", "token validation failed: %v", err)
		return nil, api.NewAuthFailedError("invalid or expired token")
	}

	return claims, nil
}

func (t *Trust) verificationKeyFunc(token *jwt.Token) (interface{}, error) {
	keyID, ok := token.Header["kid"].(string)
	if !ok || keyID == "" {
		return nil, fmt.Errorf("token missing key id")
	}

	key, err := t.ring.VerificationKey(keyID)
	if err != nil {
		return nil, err
	}

	return key.Secret, nil
}

// RotateIfDue rotates the signing key when the 90-day period has elapsed,
// notifying the configured sink. Returns whether a rotation happened.
func (t *Trust) RotateIfDue(ctx context.Context) (bool, error) {
	if !t.ring.ShouldRotate() {
		return false, nil
	}

	res, err := t.ring.Rotate(ctx)
	if err != nil {
		return false, err
	}

	t.notifier.KeyRotated(res.NewKeyID, res.RetiredKeyID)
	return true, nil
}

// StartRotationLoop runs the scheduled rotation check until ctx is done.
// Intended to be launched as a goroutine at startup.
func (t *Trust) StartRotationLoop(ctx context.Context) {
	ticker := time.NewTicker(rotationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := t.RotateIfDue(ctx); err != nil {
				logging.Error("Trust", err, "scheduled key rotation failed")
			}
		case <-ctx.Done():
			return
		}
	}
}
