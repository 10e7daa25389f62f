package oauth

import (
	"time"
)

// AuthorizationCode is a single-use grant produced by consent approval.
// It binds the eventual token exchange to the exact redirect URI, PKCE
// challenge and scope supplied at authorize time. Consuming a code twice is
// a hard failure.
type AuthorizationCode struct {
	Code                string    `json:"code"`
	UserID              string    `json:"user_id"`
	RedirectURI         string    `json:"redirect_uri"`
	CodeChallenge       string    `json:"code_challenge"`
	CodeChallengeMethod string    `json:"code_challenge_method"`
	Scope               string    `json:"scope"`
	State               string    `json:"state,omitempty"`
	Resource            string    `json:"resource,omitempty"`
	ClientLabel         string    `json:"client_label,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
	Consumed            bool      `json:"consumed"`
}

// Connection is a materialized grant resulting from a completed code
// exchange. Listed on /status and revocable individually or per user.
type Connection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Scope       string    `json:"scope"`
	Resource    string    `json:"resource,omitempty"`
	ClientLabel string    `json:"client_label,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthorizeRequest is the data contract submitted by the consent step.
// The consent UI itself lives elsewhere; this is what it renders and posts.
type AuthorizeRequest struct {
	RedirectURI         string `json:"redirect_uri"`
	Scope               string `json:"scope"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
	State               string `json:"state,omitempty"`
	Resource            string `json:"resource,omitempty"`
	ClientLabel         string `json:"client_label,omitempty"`
}

// TokenResponse is the /token endpoint's success payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}
