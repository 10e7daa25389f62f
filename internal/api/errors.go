package api

import (
	"errors"
	"fmt"
)

// Code is the canonical, client-visible error code carried by every error
// that crosses a component boundary. The gateway translates internal errors
// into exactly one of these codes; raw upstream bodies never leak past an
// adapter.
type Code string

const (
	CodeAuthFailed           Code = "auth_failed"
	CodeCredentialsMissing   Code = "credentials_missing"
	CodeCredentialsExpired   Code = "credentials_expired"
	CodeInsufficientScope    Code = "insufficient_scope"
	CodePlatformNotSupported Code = "platform_not_supported"
	CodeNotSupported         Code = "not_supported"
	CodeNotFound             Code = "not_found"
	CodeUpstreamError        Code = "upstream_error"
	CodeInvalidGrant         Code = "invalid_grant"
	CodeLimitExceeded        Code = "limit_exceeded"
	CodeDuplicate            Code = "duplicate"
	CodeInternal             Code = "internal"
)

// UpstreamSubtype refines CodeUpstreamError so a calling agent can decide
// whether a retry is worthwhile. Credential and data problems (access-denied,
// not-found) are non-transient; rate-limited and timeout are.
type UpstreamSubtype string

const (
	UpstreamRateLimited  UpstreamSubtype = "rate_limited"
	UpstreamAccessDenied UpstreamSubtype = "access_denied"
	UpstreamNotFound     UpstreamSubtype = "not_found"
	UpstreamTimeout      UpstreamSubtype = "timeout"
	UpstreamAuthExpired  UpstreamSubtype = "auth_expired"
	UpstreamOther        UpstreamSubtype = "other"
)

// NotFoundError represents a resource not found error with contextual
// information. Used for leagues, connections, credentials metadata and any
// other record looked up by identifier.
type NotFoundError struct {
	// ResourceType categorizes the type of resource that was not found
	// (e.g., "league", "connection", "credential").
	ResourceType string

	// ResourceName is the specific identifier of the resource.
	ResourceName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// NewNotFoundError creates a new NotFoundError for the given resource.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceName: resourceName}
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// CredentialError indicates that a platform call could not proceed because
// the stored credential is missing or no longer usable. The two cases demand
// different remediation (link the platform vs. re-authenticate), so Expired
// is part of the type rather than a message detail.
type CredentialError struct {
	// Platform is the platform the credential belongs to.
	Platform string

	// Expired is true when a credential exists but has expired or been
	// revoked upstream; false when no credential was ever stored.
	Expired bool
}

func (e *CredentialError) Error() string {
	if e.Expired {
		return fmt.Sprintf("credentials for %s have expired, re-authentication required", e.Platform)
	}
	return fmt.Sprintf("no credentials stored for %s", e.Platform)
}

// NewCredentialsMissingError reports that no credential was ever configured.
func NewCredentialsMissingError(platform string) *CredentialError {
	return &CredentialError{Platform: platform}
}

// NewCredentialsExpiredError reports that a stored credential is no longer valid.
func NewCredentialsExpiredError(platform string) *CredentialError {
	return &CredentialError{Platform: platform, Expired: true}
}

// IsCredentialsMissing checks for a never-configured credential error.
func IsCredentialsMissing(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr) && !credErr.Expired
}

// IsCredentialsExpired checks for an expired/revoked credential error.
func IsCredentialsExpired(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr) && credErr.Expired
}

// UpstreamError represents a failure reported by (or while reaching) a
// fantasy platform API. Status carries the raw HTTP status for diagnostics
// only; it is never surfaced to clients.
type UpstreamError struct {
	Platform string
	Subtype  UpstreamSubtype
	Status   int
}

func (e *UpstreamError) Error() string {
	switch e.Subtype {
	case UpstreamRateLimited:
		return fmt.Sprintf("%s is rate limiting requests, try again later", e.Platform)
	case UpstreamAccessDenied:
		return fmt.Sprintf("%s denied access to the requested league", e.Platform)
	case UpstreamNotFound:
		return fmt.Sprintf("%s could not find the requested resource", e.Platform)
	case UpstreamTimeout:
		return fmt.Sprintf("request to %s timed out", e.Platform)
	case UpstreamAuthExpired:
		return fmt.Sprintf("%s rejected the stored credentials", e.Platform)
	default:
		return fmt.Sprintf("%s returned an unexpected error (status %d)", e.Platform, e.Status)
	}
}

// NewUpstreamError creates an UpstreamError with the given subtype and raw status.
func NewUpstreamError(platform string, subtype UpstreamSubtype, status int) *UpstreamError {
	return &UpstreamError{Platform: platform, Subtype: subtype, Status: status}
}

// IsUpstreamError checks if an error is or wraps an UpstreamError.
func IsUpstreamError(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr)
}

// NotSupportedError indicates a tool/platform (or tool/sport) combination
// that the platform cannot serve. Returned instead of a partial result.
type NotSupportedError struct {
	Platform string
	Tool     string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("tool %s is not supported on %s", e.Tool, e.Platform)
}

// NewNotSupportedError creates a NotSupportedError for a tool/platform combination.
func NewNotSupportedError(platform, tool string) *NotSupportedError {
	return &NotSupportedError{Platform: platform, Tool: tool}
}

// IsNotSupported checks if an error is or wraps a NotSupportedError.
func IsNotSupported(err error) bool {
	var nsErr *NotSupportedError
	return errors.As(err, &nsErr)
}

// PlatformNotSupportedError indicates a request named a platform the gateway
// has no adapter for.
type PlatformNotSupportedError struct {
	Platform string
}

func (e *PlatformNotSupportedError) Error() string {
	return fmt.Sprintf("platform %s is not supported", e.Platform)
}

// NewPlatformNotSupportedError creates a PlatformNotSupportedError.
func NewPlatformNotSupportedError(platform string) *PlatformNotSupportedError {
	return &PlatformNotSupportedError{Platform: platform}
}

// IsPlatformNotSupported checks if an error is or wraps a PlatformNotSupportedError.
func IsPlatformNotSupported(err error) bool {
	var pnsErr *PlatformNotSupportedError
	return errors.As(err, &pnsErr)
}

// AuthFailedError indicates the bearer token on an inbound request could not
// be validated. Reason is safe to surface; it never contains token material.
type AuthFailedError struct {
	Reason string
}

func (e *AuthFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return "authentication failed"
}

// NewAuthFailedError creates an AuthFailedError with a client-safe reason.
func NewAuthFailedError(reason string) *AuthFailedError {
	return &AuthFailedError{Reason: reason}
}

// IsAuthFailed checks if an error is or wraps an AuthFailedError.
func IsAuthFailed(err error) bool {
	var afErr *AuthFailedError
	return errors.As(err, &afErr)
}

// InsufficientScopeError indicates a valid token that lacks the scope the
// requested operation demands.
type InsufficientScopeError struct {
	Required string
}

func (e *InsufficientScopeError) Error() string {
	return fmt.Sprintf("token lacks required scope %s", e.Required)
}

// NewInsufficientScopeError creates an InsufficientScopeError.
func NewInsufficientScopeError(required string) *InsufficientScopeError {
	return &InsufficientScopeError{Required: required}
}

// IsInsufficientScope checks if an error is or wraps an InsufficientScopeError.
func IsInsufficientScope(err error) bool {
	var isErr *InsufficientScopeError
	return errors.As(err, &isErr)
}

// InvalidGrantError indicates an OAuth code exchange failure: unknown code,
// expired code, already-consumed code, or PKCE verifier mismatch. The reason
// is deliberately coarse; distinguishing the cases to a client would aid
// brute forcing.
type InvalidGrantError struct {
	Reason string
}

func (e *InvalidGrantError) Error() string {
	return "invalid_grant: " + e.Reason
}

// NewInvalidGrantError creates an InvalidGrantError.
func NewInvalidGrantError(reason string) *InvalidGrantError {
	return &InvalidGrantError{Reason: reason}
}

// IsInvalidGrant checks if an error is or wraps an InvalidGrantError.
func IsInvalidGrant(err error) bool {
	var igErr *InvalidGrantError
	return errors.As(err, &igErr)
}

// LimitExceededError indicates a write was rejected because a per-user cap
// was reached (currently only the league cap).
type LimitExceededError struct {
	Resource string
	Limit    int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("limit of %d %s reached", e.Limit, e.Resource)
}

// NewLimitExceededError creates a LimitExceededError.
func NewLimitExceededError(resource string, limit int) *LimitExceededError {
	return &LimitExceededError{Resource: resource, Limit: limit}
}

// IsLimitExceeded checks if an error is or wraps a LimitExceededError.
func IsLimitExceeded(err error) bool {
	var leErr *LimitExceededError
	return errors.As(err, &leErr)
}

// DuplicateError indicates a write that would create a second record with the
// same natural key.
type DuplicateError struct {
	ResourceType string
	Key          string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.ResourceType, e.Key)
}

// NewDuplicateError creates a DuplicateError.
func NewDuplicateError(resourceType, key string) *DuplicateError {
	return &DuplicateError{ResourceType: resourceType, Key: key}
}

// IsDuplicate checks if an error is or wraps a DuplicateError.
func IsDuplicate(err error) bool {
	var dupErr *DuplicateError
	return errors.As(err, &dupErr)
}

// CodeOf maps any error to its canonical client-visible code. Errors outside
// the taxonomy map to CodeInternal so nothing unexpected leaks.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case IsAuthFailed(err):
		return CodeAuthFailed
	case IsCredentialsMissing(err):
		return CodeCredentialsMissing
	case IsCredentialsExpired(err):
		return CodeCredentialsExpired
	case IsInsufficientScope(err):
		return CodeInsufficientScope
	case IsPlatformNotSupported(err):
		return CodePlatformNotSupported
	case IsNotSupported(err):
		return CodeNotSupported
	case IsNotFound(err):
		return CodeNotFound
	case IsUpstreamError(err):
		return CodeUpstreamError
	case IsInvalidGrant(err):
		return CodeInvalidGrant
	case IsLimitExceeded(err):
		return CodeLimitExceeded
	case IsDuplicate(err):
		return CodeDuplicate
	default:
		return CodeInternal
	}
}
