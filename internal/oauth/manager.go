package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"leaguelink/internal/api"
	"leaguelink/internal/store"
	"leaguelink/internal/trust"
	"leaguelink/pkg/logging"
	pkgoauth "leaguelink/pkg/oauth"
)

const (
	// codeTTL is the authorization-code lifetime. Codes not exchanged
	// within it expire out of the store.
	codeTTL = 5 * time.Minute

	// accessTokenTTL is the lifetime of minted access tokens.
	accessTokenTTL = 10 * time.Minute

	// connectionTTL bounds how long a granted connection stays listed and
	// exchangeable before the client must re-authorize.
	connectionTTL = 30 * 24 * time.Hour

	// codeBytes is the entropy of generated authorization codes.
	codeBytes = 32
)

// Manager runs the OAuth 2.1 authorization-code-with-PKCE flow that grants
// external AI clients scoped, revocable access tokens.
type Manager struct {
	store store.Store
	trust *trust.Trust

	// planFor resolves the billing plan to embed in minted tokens.
	// Injected so the subscription cache stays a separate component.
	planFor func(ctx context.Context, userID string) trust.Plan
}

// NewManager creates an OAuth manager. planFor may be nil, in which case all
// tokens carry the free plan.
func NewManager(st store.Store, tr *trust.Trust, planFor func(ctx context.Context, userID string) trust.Plan) *Manager {
	if planFor == nil {
		planFor = func(context.Context, string) trust.Plan { return trust.PlanFree }
	}
	return &Manager{store: st, trust: tr, planFor: planFor}
}

// ValidateAuthorizeRequest checks an authorization request before any
// consent step is shown. Errors here are client errors; nothing is stored.
func (m *Manager) ValidateAuthorizeRequest(req AuthorizeRequest) error {
	if req.RedirectURI == "" {
		return fmt.Errorf("redirect_uri is required")
	}
	u, err := url.Parse(req.RedirectURI)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("redirect_uri must be an absolute URL")
	}
	if u.Scheme != "https" && u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		return fmt.Errorf("redirect_uri must use https (or localhost for native clients)")
	}
	if req.Scope == "" {
		return fmt.Errorf("scope is required")
	}
	if req.CodeChallenge == "" {
		return fmt.Errorf("code_challenge is required")
	}
	if req.CodeChallengeMethod != pkgoauth.MethodS256 && req.CodeChallengeMethod != pkgoauth.MethodPlain {
		return fmt.Errorf("unsupported code_challenge_method %q", req.CodeChallengeMethod)
	}

	return nil
}

// IssueCode creates a single-use authorization code after explicit user
// approval and returns the redirect target carrying the code and echoed
// state.
func (m *Manager) IssueCode(ctx context.Context, userID string, req AuthorizeRequest) (string, error) {
	if err := m.ValidateAuthorizeRequest(req); err != nil {
		return "", err
	}

	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating authorization code: %w", err)
	}
	code := base64.RawURLEncoding.EncodeToString(buf)

	record := AuthorizationCode{
		Code:                code,
		UserID:              userID,
		RedirectURI:         req.RedirectURI,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		Scope:               req.Scope,
		State:               req.State,
		Resource:            req.Resource,
		ClientLabel:         req.ClientLabel,
		ExpiresAt:           time.Now().Add(codeTTL).UTC(),
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding authorization code: %w", err)
	}
	if err := m.store.Put(ctx, store.NamespaceAuthCodes, code, raw, codeTTL); err != nil {
		return "", fmt.Errorf("persisting authorization code: %w", err)
	}

	logging.Audit(logging.AuditEvent{Action: "code_issue", Outcome: "success", Subject: userID})

	return redirectWith(req.RedirectURI, url.Values{
		"code":  {code},
		"state": {req.State},
	}), nil
}

// Deny returns the redirect target for an explicit consent denial. No code
// is issued; the client sees error=access_denied with its echoed state.
func (m *Manager) Deny(req AuthorizeRequest) string {
	return redirectWith(req.RedirectURI, url.Values{
		"error": {"access_denied"},
		"state": {req.State},
	})
}

// Exchange consumes an authorization code and, when the PKCE verifier checks
// out, mints a scoped access token backed by a new Connection.
//
// Consumption is exclusive: the consumed flag is flipped through the store's
// atomic update, so two concurrent exchanges of the same code produce
// exactly one success. The code is marked consumed even when the verifier
// mismatches, preventing verifier brute-forcing against a captured code.
func (m *Manager) Exchange(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	var record AuthorizationCode

	err := m.store.Update(ctx, store.NamespaceAuthCodes, code, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, api.NewInvalidGrantError("unknown or expired code")
		}
		if err := json.Unmarshal(current, &record); err != nil {
			return nil, api.NewInvalidGrantError("malformed code record")
		}
		if record.Consumed {
			return nil, api.NewInvalidGrantError("code already consumed")
		}

		record.Consumed = true
		return json.Marshal(record)
	})
	if err != nil {
		if api.IsInvalidGrant(err) {
			logging.Audit(logging.AuditEvent{Action: "code_exchange", Outcome: "failure", Reason: err.Error()})
			return nil, err
		}
		return nil, fmt.Errorf("consuming authorization code: %w", err)
	}

	if time.Now().After(record.ExpiresAt) {
		logging.Audit(logging.AuditEvent{Action: "code_exchange", Outcome: "failure", Subject: record.UserID, Reason: "code expired"})
		return nil, api.NewInvalidGrantError("code expired")
	}

	if !pkgoauth.VerifyChallenge(codeVerifier, record.CodeChallenge, record.CodeChallengeMethod) {
		// The code stays consumed; a retry with the right verifier is too late.
		logging.Audit(logging.AuditEvent{Action: "code_exchange", Outcome: "failure", Subject: record.UserID, Reason: "verifier mismatch"})
		return nil, api.NewInvalidGrantError("verifier mismatch")
	}

	conn := Connection{
		ID:          uuid.NewString(),
		UserID:      record.UserID,
		Scope:       record.Scope,
		Resource:    record.Resource,
		ClientLabel: record.ClientLabel,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   time.Now().Add(connectionTTL).UTC(),
	}
	connRaw, err := json.Marshal(conn)
	if err != nil {
		return nil, fmt.Errorf("encoding connection: %w", err)
	}
	if err := m.store.Put(ctx, store.NamespaceConnections, connectionKey(conn.UserID, conn.ID), connRaw, connectionTTL); err != nil {
		return nil, fmt.Errorf("persisting connection: %w", err)
	}

	token, err := m.trust.Mint(record.UserID, m.planFor(ctx, record.UserID), "", record.Scope, accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}

	logging.Audit(logging.AuditEvent{Action: "code_exchange", Outcome: "success", Subject: record.UserID, Target: conn.ID})

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(accessTokenTTL.Seconds()),
		Scope:       record.Scope,
	}, nil
}

// Connections lists the live connections for a user in store order.
// Callers sort if they care about order.
func (m *Manager) Connections(ctx context.Context, userID string) ([]Connection, error) {
	raw, err := m.store.List(ctx, store.NamespaceConnections, userID+"/")
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}

	conns := make([]Connection, 0, len(raw))
	for _, b := range raw {
		var c Connection
		if err := json.Unmarshal(b, &c); err != nil {
			logging.Warn("OAuth", "skipping malformed connection record: %v", err)
			continue
		}
		conns = append(conns, c)
	}

	return conns, nil
}

// Revoke destroys a single connection. Revoking an unknown or already
// revoked connection is not an error.
func (m *Manager) Revoke(ctx context.Context, userID, connectionID string) error {
	if err := m.store.Delete(ctx, store.NamespaceConnections, connectionKey(userID, connectionID)); err != nil {
		return fmt.Errorf("revoking connection: %w", err)
	}

	logging.Audit(logging.AuditEvent{Action: "connection_revoke", Outcome: "success", Subject: userID, Target: connectionID})
	return nil
}

// RevokeAll destroys every connection a user has granted. Idempotent.
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	raw, err := m.store.List(ctx, store.NamespaceConnections, userID+"/")
	if err != nil {
		return fmt.Errorf("listing connections for revoke-all: %w", err)
	}

	for key := range raw {
		if err := m.store.Delete(ctx, store.NamespaceConnections, key); err != nil {
			return fmt.Errorf("revoking connection %s: %w", key, err)
		}
	}

	logging.Audit(logging.AuditEvent{Action: "connection_revoke_all", Outcome: "success", Subject: userID})
	return nil
}

func connectionKey(userID, connectionID string) string {
	return userID + "/" + connectionID
}

func redirectWith(redirectURI string, params url.Values) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// Validated earlier; fall back to naive concatenation.
		return redirectURI + "?" + params.Encode()
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				q.Set(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}
