package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"leaguelink/internal/api"
	"leaguelink/internal/league"
	"leaguelink/internal/platform"
	"leaguelink/internal/trust"
	"leaguelink/internal/vault"
)

// mountREST attaches the non-MCP routes: credential management, league
// management, the OAuth surface, the billing webhook and the health probe.
func (g *Gateway) mountREST(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", g.handleHealthz)

	mux.HandleFunc("PUT /api/credentials/{platform}", g.authed(g.handleCredentialPut))
	mux.HandleFunc("GET /api/credentials/{platform}", g.authed(g.handleCredentialStatus))
	mux.HandleFunc("DELETE /api/credentials/{platform}", g.authed(g.handleCredentialDelete))

	mux.HandleFunc("GET /api/leagues", g.authed(g.handleLeagueList))
	mux.HandleFunc("POST /api/leagues", g.authed(g.handleLeagueAdd))
	mux.HandleFunc("DELETE /api/leagues/{id}", g.authed(g.handleLeagueDelete))
	mux.HandleFunc("PUT /api/leagues/{id}/team", g.authed(g.handleLeagueSetTeam))
	mux.HandleFunc("POST /api/leagues/discover", g.authed(g.handleLeagueDiscover))

	if g.oauth != nil {
		mux.Handle("/oauth/", http.StripPrefix("/oauth", g.oauth))
	}
	if g.webhook != nil {
		mux.Handle("POST /webhooks/billing", g.webhook)
	}
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeREST(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authedHandler is a REST handler that has already passed token validation.
type authedHandler func(w http.ResponseWriter, r *http.Request, claims *trust.Claims)

// authed wraps a handler with bearer validation and scope enforcement.
func (g *Gateway) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeRESTError(w, api.NewAuthFailedError("missing bearer token"))
			return
		}
		claims, err := g.trust.Validate(token)
		if err != nil {
			writeRESTError(w, err)
			return
		}
		if !claims.HasScope(trust.ScopeFantasyRead) {
			writeRESTError(w, api.NewInsufficientScopeError(trust.ScopeFantasyRead))
			return
		}
		h(w, r, claims)
	}
}

// credentialPayload is the REST shape for linking any of the three
// credential kinds. Kind decides which fields are read.
type credentialPayload struct {
	Kind          string `json:"kind"`
	SWID          string `json:"swid,omitempty"`
	SessionCookie string `json:"session_cookie,omitempty"`
	AccessToken   string `json:"access_token,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
}

func (p *credentialPayload) toCredential() (*vault.Credential, error) {
	cred := &vault.Credential{Kind: vault.Kind(p.Kind), Email: p.Email}
	switch cred.Kind {
	case vault.KindCookiePair:
		cred.CookiePair = &vault.CookiePair{SWID: p.SWID, SessionCookie: p.SessionCookie}
	case vault.KindOAuthTokens:
		tokens := &vault.OAuthTokens{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
		if p.ExpiresAt != "" {
			expiresAt, err := time.Parse(time.RFC3339, p.ExpiresAt)
			if err != nil {
				return nil, err
			}
			tokens.ExpiresAt = expiresAt
		}
		cred.OAuthTokens = tokens
	case vault.KindUsernameRef:
		cred.UsernameRef = &vault.UsernameRef{Username: p.Username}
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	return cred, nil
}

func (g *Gateway) handleCredentialPut(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	platformName := r.PathValue("platform")
	if _, err := g.adapters.Get(platformName); err != nil {
		writeRESTError(w, err)
		return
	}

	var payload credentialPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeREST(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}

	cred, err := payload.toCredential()
	if err != nil {
		writeREST(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := g.vault.Store(r.Context(), claims.Subject, platformName, cred); err != nil {
		writeRESTError(w, err)
		return
	}
	writeREST(w, http.StatusNoContent, nil)
}

func (g *Gateway) handleCredentialStatus(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	platformName := r.PathValue("platform")

	if r.URL.Query().Get("raw") == "true" {
		if !claims.HasScope(trust.ScopeCredentialsRaw) {
			writeRESTError(w, api.NewInsufficientScopeError(trust.ScopeCredentialsRaw))
			return
		}
		cred, err := g.vault.Fetch(r.Context(), claims.Subject, platformName)
		if err != nil {
			writeRESTError(w, err)
			return
		}
		writeREST(w, http.StatusOK, cred)
		return
	}

	meta, err := g.vault.Status(r.Context(), claims.Subject, platformName)
	if err != nil {
		writeRESTError(w, err)
		return
	}
	writeREST(w, http.StatusOK, meta)
}

func (g *Gateway) handleCredentialDelete(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	if err := g.vault.Delete(r.Context(), claims.Subject, r.PathValue("platform")); err != nil {
		writeRESTError(w, err)
		return
	}
	writeREST(w, http.StatusNoContent, nil)
}

func (g *Gateway) handleLeagueList(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	leagues, err := g.leagues.List(r.Context(), claims.Subject)
	if err != nil {
		writeRESTError(w, err)
		return
	}
	writeREST(w, http.StatusOK, map[string]interface{}{"leagues": leagues})
}

// handleLeagueAdd accepts either a single league object or an array of up
// to MaxLeaguesPerUser leagues. The single-object form responds with the
// created league; the array form responds with the created list.
func (g *Gateway) handleLeagueAdd(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeREST(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		writeREST(w, http.StatusBadRequest, map[string]string{"error": "empty body"})
		return
	}

	if trimmed[0] != '[' {
		var l league.League
		if err := json.Unmarshal(raw, &l); err != nil {
			writeREST(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
			return
		}
		added, err := g.leagues.Add(r.Context(), claims.Subject, l)
		if err != nil {
			writeRESTError(w, err)
			return
		}
		writeREST(w, http.StatusCreated, added)
		return
	}

	var batch []league.League
	if err := json.Unmarshal(raw, &batch); err != nil {
		writeREST(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}
	if len(batch) > league.MaxLeaguesPerUser {
		writeRESTError(w, api.NewLimitExceededError("leagues", league.MaxLeaguesPerUser))
		return
	}

	added := make([]league.League, 0, len(batch))
	for _, l := range batch {
		created, err := g.leagues.Add(r.Context(), claims.Subject, l)
		if err != nil {
			writeRESTError(w, err)
			return
		}
		added = append(added, created)
	}
	writeREST(w, http.StatusCreated, map[string]interface{}{"leagues": added})
}

func (g *Gateway) handleLeagueDelete(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	if err := g.leagues.Delete(r.Context(), claims.Subject, r.PathValue("id")); err != nil {
		writeRESTError(w, err)
		return
	}
	writeREST(w, http.StatusNoContent, nil)
}

func (g *Gateway) handleLeagueSetTeam(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	var payload struct {
		TeamID string `json:"team_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeREST(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}

	if err := g.leagues.SetTeam(r.Context(), claims.Subject, r.PathValue("id"), payload.TeamID); err != nil {
		writeRESTError(w, err)
		return
	}
	writeREST(w, http.StatusNoContent, nil)
}

// handleLeagueDiscover enumerates a user's leagues on platforms that expose
// a public listing.
func (g *Gateway) handleLeagueDiscover(w http.ResponseWriter, r *http.Request, claims *trust.Claims) {
	var payload struct {
		Platform   string `json:"platform"`
		Sport      string `json:"sport"`
		SeasonYear int    `json:"season_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeREST(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}
	if payload.SeasonYear == 0 {
		payload.SeasonYear = time.Now().UTC().Year()
	}

	adapter, err := g.adapters.Get(payload.Platform)
	if err != nil {
		writeRESTError(w, err)
		return
	}
	discoverer, ok := adapter.(platform.Discoverer)
	if !ok {
		writeRESTError(w, api.NewNotSupportedError(payload.Platform, "league discovery"))
		return
	}

	leagues, err := discoverer.DiscoverLeagues(r.Context(), claims.Subject, payload.Sport, payload.SeasonYear)
	if err != nil {
		writeRESTError(w, err)
		return
	}
	writeREST(w, http.StatusOK, map[string]interface{}{"leagues": leagues})
}

func writeREST(w http.ResponseWriter, status int, body interface{}) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeRESTError maps canonical error codes onto HTTP statuses.
func writeRESTError(w http.ResponseWriter, err error) {
	code := api.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case api.CodeAuthFailed:
		status = http.StatusUnauthorized
	case api.CodeInsufficientScope:
		status = http.StatusForbidden
	case api.CodeNotFound:
		status = http.StatusNotFound
	case api.CodeCredentialsMissing, api.CodeCredentialsExpired, api.CodeInvalidGrant:
		status = http.StatusBadRequest
	case api.CodeDuplicate:
		status = http.StatusConflict
	case api.CodeLimitExceeded:
		status = http.StatusUnprocessableEntity
	case api.CodeNotSupported, api.CodePlatformNotSupported:
		status = http.StatusNotImplemented
	case api.CodeUpstreamError:
		status = http.StatusBadGateway
	}

	writeREST(w, status, toolErrorBody{Code: code, Message: err.Error()})
}
