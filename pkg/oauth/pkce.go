package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const (
	// MethodS256 is the SHA256-based challenge method. Clients should
	// always prefer it.
	MethodS256 = "S256"

	// MethodPlain sends the verifier as the challenge. Permitted by the
	// spec for constrained clients but offers no interception protection.
	MethodPlain = "plain"
)

const (
	// pkceVerifierBytes is the number of random bytes for the PKCE code
	// verifier. 32 bytes provides 256 bits of entropy.
	pkceVerifierBytes = 32

	// stateBytes is the number of random bytes for the OAuth state
	// parameter. 32 bytes encodes to 43 base64url characters.
	stateBytes = 32
)

// PKCEChallenge bundles a generated verifier with its challenge.
type PKCEChallenge struct {
	CodeVerifier        string
	CodeChallenge       string
	CodeChallengeMethod string
}

// GeneratePKCE generates a new PKCE code verifier and S256 challenge.
// The code verifier is 32 random bytes (256 bits), base64url-encoded.
func GeneratePKCE() (*PKCEChallenge, error) {
	verifierBytes := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(verifierBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes for PKCE: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)
	challenge, err := ComputeChallenge(verifier, MethodS256)
	if err != nil {
		return nil, err
	}

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: MethodS256,
	}, nil
}

// ComputeChallenge derives the code challenge from a verifier using the
// declared method.
func ComputeChallenge(verifier, method string) (string, error) {
	switch method {
	case MethodS256:
		hash := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(hash[:]), nil
	case MethodPlain:
		return verifier, nil
	default:
		return "", fmt.Errorf("unsupported code challenge method %q", method)
	}
}

// VerifyChallenge recomputes the challenge from the verifier and compares it
// in constant time against the stored challenge.
func VerifyChallenge(verifier, storedChallenge, method string) bool {
	computed, err := ComputeChallenge(verifier, method)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedChallenge)) == 1
}

// GenerateState generates a random state parameter for OAuth flows.
// Base64url-encoded, used to prevent CSRF attacks and link the authorization
// response back to the original request.
func GenerateState() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
