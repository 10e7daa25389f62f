package api

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialError_Distinction(t *testing.T) {
	missing := NewCredentialsMissingError("espn")
	expired := NewCredentialsExpiredError("yahoo")

	assert.True(t, IsCredentialsMissing(missing))
	assert.False(t, IsCredentialsExpired(missing))
	assert.True(t, IsCredentialsExpired(expired))
	assert.False(t, IsCredentialsMissing(expired))

	assert.Contains(t, missing.Error(), "no credentials")
	assert.Contains(t, expired.Error(), "re-authentication")
}

func TestPredicates_Unwrap(t *testing.T) {
	wrapped := fmt.Errorf("dispatch failed: %w", NewUpstreamError("espn", UpstreamRateLimited, 429))
	assert.True(t, IsUpstreamError(wrapped))
	assert.Equal(t, CodeUpstreamError, CodeOf(wrapped))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"auth failed", NewAuthFailedError("bad signature"), CodeAuthFailed},
		{"credentials missing", NewCredentialsMissingError("espn"), CodeCredentialsMissing},
		{"credentials expired", NewCredentialsExpiredError("yahoo"), CodeCredentialsExpired},
		{"insufficient scope", NewInsufficientScopeError("fantasy.read"), CodeInsufficientScope},
		{"platform not supported", NewPlatformNotSupportedError("nfl-dot-com"), CodePlatformNotSupported},
		{"tool not supported", NewNotSupportedError("sleeper", "getFreeAgents"), CodeNotSupported},
		{"not found", NewNotFoundError("league", "123"), CodeNotFound},
		{"upstream", NewUpstreamError("espn", UpstreamTimeout, 0), CodeUpstreamError},
		{"invalid grant", NewInvalidGrantError("code consumed"), CodeInvalidGrant},
		{"limit exceeded", NewLimitExceededError("leagues", 10), CodeLimitExceeded},
		{"duplicate", NewDuplicateError("league", "123/football"), CodeDuplicate},
		{"unknown error", fmt.Errorf("disk full"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
		})
	}
}
