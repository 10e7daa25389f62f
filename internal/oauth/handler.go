package oauth

import (
	"encoding/json"
	"net/http"

	"leaguelink/internal/api"
	"leaguelink/pkg/logging"
)

// AuthFunc authenticates a first-party request, returning the user id.
// Supplied by the gateway so this package does not depend on how sessions
// are established.
type AuthFunc func(r *http.Request) (string, error)

// Handler exposes the OAuth authorization server over HTTP.
//
// Routes (mounted under a prefix by the gateway):
//
//	GET  /authorize          validate request, return the consent contract
//	POST /authorize/decision submit allow/deny, returns redirect target
//	POST /token              code + verifier exchange (unauthenticated)
//	POST /revoke             revoke one connection
//	POST /revoke-all         revoke every connection for the caller
//	GET  /status             list the caller's active connections
type Handler struct {
	manager      *Manager
	authenticate AuthFunc
	limiter      *ipRateLimiter
	mux          *http.ServeMux
}

// NewHandler creates the OAuth HTTP handler.
func NewHandler(manager *Manager, authenticate AuthFunc) *Handler {
	h := &Handler{
		manager:      manager,
		authenticate: authenticate,
		limiter:      newIPRateLimiter(),
		mux:          http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /authorize", h.limiter.limit(h.handleAuthorize))
	h.mux.HandleFunc("POST /authorize/decision", h.limiter.limit(h.handleDecision))
	h.mux.HandleFunc("POST /token", h.limiter.limit(h.handleToken))
	h.mux.HandleFunc("POST /revoke", h.handleRevoke)
	h.mux.HandleFunc("POST /revoke-all", h.handleRevokeAll)
	h.mux.HandleFunc("GET /status", h.handleStatus)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleAuthorize validates the authorization request and returns the data
// contract the consent UI renders: requested scope, redirect host and the
// opaque request parameters to echo back on decision.
func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		writeAuthError(w)
		return
	}

	req := authorizeRequestFromQuery(r)
	if err := h.manager.ValidateAuthorizeRequest(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"consent_required": true,
		"request":          req,
	})
}

// decisionPayload is what the consent step posts back.
type decisionPayload struct {
	Approve bool             `json:"approve"`
	Request AuthorizeRequest `json:"request"`
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeAuthError(w)
		return
	}

	var payload decisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "malformed decision payload")
		return
	}

	if !payload.Approve {
		writeJSON(w, http.StatusOK, map[string]string{
			"redirect_to": h.manager.Deny(payload.Request),
		})
		return
	}

	redirectTo, err := h.manager.IssueCode(r.Context(), userID, payload.Request)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"redirect_to": redirectTo})
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	if grantType := r.PostFormValue("grant_type"); grantType != "authorization_code" {
		writeJSONError(w, http.StatusBadRequest, "unsupported_grant_type", "only authorization_code is supported")
		return
	}

	code := r.PostFormValue("code")
	verifier := r.PostFormValue("code_verifier")
	if code == "" || verifier == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "code and code_verifier are required")
		return
	}

	resp, err := h.manager.Exchange(r.Context(), code, verifier)
	if err != nil {
		if api.IsInvalidGrant(err) {
			writeJSONError(w, http.StatusBadRequest, "invalid_grant", "authorization code is invalid, expired or consumed")
			return
		}
		logging.Error("OAuth", err, "token exchange failed")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "token exchange failed")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeAuthError(w)
		return
	}

	var payload struct {
		ConnectionID string `json:"connection_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ConnectionID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "connection_id is required")
		return
	}

	if err := h.manager.Revoke(r.Context(), userID, payload.ConnectionID); err != nil {
		logging.Error("OAuth", err, "revoke failed")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "revoke failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (h *Handler) handleRevokeAll(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeAuthError(w)
		return
	}

	if err := h.manager.RevokeAll(r.Context(), userID); err != nil {
		logging.Error("OAuth", err, "revoke-all failed")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "revoke-all failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		writeAuthError(w)
		return
	}

	conns, err := h.manager.Connections(r.Context(), userID)
	if err != nil {
		logging.Error("OAuth", err, "listing connections failed")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "listing connections failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"connections": conns})
}

func authorizeRequestFromQuery(r *http.Request) AuthorizeRequest {
	q := r.URL.Query()
	return AuthorizeRequest{
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		State:               q.Get("state"),
		Resource:            q.Get("resource"),
		ClientLabel:         q.Get("client_label"),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("OAuth", err, "failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeJSONError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
}
