package vault

import (
	"fmt"
	"time"
)

// Kind discriminates the credential union. Exactly one credential payload
// matches each kind.
type Kind string

const (
	// KindCookiePair is a session-cookie credential (SWID + session cookie).
	KindCookiePair Kind = "cookie_pair"

	// KindOAuthTokens is an OAuth access/refresh token pair.
	KindOAuthTokens Kind = "oauth_tokens"

	// KindUsernameRef is a public username reference; not a secret, but
	// stored through the same envelope so the union stays uniform.
	KindUsernameRef Kind = "username_ref"
)

// CookiePair holds the cookie material for cookie-authenticated platforms.
type CookiePair struct {
	SWID          string `json:"swid"`
	SessionCookie string `json:"session_cookie"`
}

// OAuthTokens holds upstream OAuth token material.
type OAuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its expiry.
func (o *OAuthTokens) Expired() bool {
	return !o.ExpiresAt.IsZero() && time.Now().After(o.ExpiresAt)
}

// UsernameRef holds a public platform username.
type UsernameRef struct {
	Username string `json:"username"`
}

// Credential is the tagged union over the three credential shapes. Exactly
// one payload field must be set, matching Kind. Modeled as an explicit sum
// type with a single encryption envelope so the platforms cannot drift apart
// in storage shape.
type Credential struct {
	Kind        Kind         `json:"kind"`
	CookiePair  *CookiePair  `json:"cookie_pair,omitempty"`
	OAuthTokens *OAuthTokens `json:"oauth_tokens,omitempty"`
	UsernameRef *UsernameRef `json:"username_ref,omitempty"`

	// Email is an optional contact address captured at link time. Its
	// presence (not its value) is exposed through Metadata.
	Email string `json:"email,omitempty"`
}

// Validate checks that exactly the payload matching Kind is present.
func (c *Credential) Validate() error {
	switch c.Kind {
	case KindCookiePair:
		if c.CookiePair == nil || c.OAuthTokens != nil || c.UsernameRef != nil {
			return fmt.Errorf("credential kind %s requires exactly the cookie_pair payload", c.Kind)
		}
		if c.CookiePair.SWID == "" || c.CookiePair.SessionCookie == "" {
			return fmt.Errorf("cookie_pair credential requires swid and session_cookie")
		}
	case KindOAuthTokens:
		if c.OAuthTokens == nil || c.CookiePair != nil || c.UsernameRef != nil {
			return fmt.Errorf("credential kind %s requires exactly the oauth_tokens payload", c.Kind)
		}
		if c.OAuthTokens.AccessToken == "" {
			return fmt.Errorf("oauth_tokens credential requires access_token")
		}
	case KindUsernameRef:
		if c.UsernameRef == nil || c.CookiePair != nil || c.OAuthTokens != nil {
			return fmt.Errorf("credential kind %s requires exactly the username_ref payload", c.Kind)
		}
		if c.UsernameRef.Username == "" {
			return fmt.Errorf("username_ref credential requires username")
		}
	default:
		return fmt.Errorf("unknown credential kind %q", c.Kind)
	}

	return nil
}

// Metadata is the lightweight, decrypt-free status record maintained
// alongside each credential. It answers "is this platform configured?"
// without touching secret material.
type Metadata struct {
	HasCredential bool      `json:"has_credential"`
	LastUpdated   time.Time `json:"last_updated"`
	HasEmail      bool      `json:"has_email"`
}
