// Package gateway runs the MCP tool server and the REST surface around it.
// Every tool call passes one pipeline: bearer-token validation, league
// resolution, adapter dispatch, canonical error translation.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"leaguelink/internal/api"
	"leaguelink/internal/billing"
	"leaguelink/internal/league"
	"leaguelink/internal/oauth"
	"leaguelink/internal/platform"
	"leaguelink/internal/trust"
	"leaguelink/internal/vault"
	"leaguelink/pkg/logging"
)

// serverName and serverVersion identify the MCP server to clients.
const (
	serverName    = "leaguelink"
	serverVersion = "1.0.0"
)

// Config carries the gateway listen settings.
type Config struct {
	Host string
	Port int
}

// Gateway wires the trust layer, adapters and stores behind one HTTP
// listener serving both the MCP endpoint and the REST surface.
type Gateway struct {
	config   Config
	trust    *trust.Trust
	adapters *platform.Registry
	leagues  *league.Registry
	vault    *vault.Vault
	oauth    *oauth.Handler
	webhook  *billing.WebhookHandler

	mcp        *server.MCPServer
	httpServer *http.Server

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a gateway. The oauth handler and webhook handler may be nil
// when those surfaces are not configured; their routes are then not mounted.
func New(cfg Config, tr *trust.Trust, adapters *platform.Registry, leagues *league.Registry, v *vault.Vault, oauthHandler *oauth.Handler, webhook *billing.WebhookHandler) *Gateway {
	return &Gateway{
		config:   cfg,
		trust:    tr,
		adapters: adapters,
		leagues:  leagues,
		vault:    v,
		oauth:    oauthHandler,
		webhook:  webhook,
	}
}

// claimsContextKey carries either validated claims or the validation error
// from the HTTP layer into tool handlers.
type claimsContextKey struct{}

type authResult struct {
	claims *trust.Claims
	err    error
}

// authenticate validates the bearer token on an inbound request. The result
// travels in the context so handlers fail per-call instead of the transport
// rejecting the whole session.
func (g *Gateway) authenticate(ctx context.Context, r *http.Request) context.Context {
	token := bearerToken(r)
	if token == "" {
		return context.WithValue(ctx, claimsContextKey{}, authResult{err: api.NewAuthFailedError("missing bearer token")})
	}

	claims, err := g.trust.Validate(token)
	if err != nil {
		return context.WithValue(ctx, claimsContextKey{}, authResult{err: err})
	}
	return context.WithValue(ctx, claimsContextKey{}, authResult{claims: claims})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// claimsFrom extracts validated claims, enforcing the read scope.
func claimsFrom(ctx context.Context) (*trust.Claims, error) {
	result, ok := ctx.Value(claimsContextKey{}).(authResult)
	if !ok {
		return nil, api.NewAuthFailedError("missing bearer token")
	}
	if result.err != nil {
		return nil, result.err
	}
	if !result.claims.HasScope(trust.ScopeFantasyRead) {
		return nil, api.NewInsufficientScopeError(trust.ScopeFantasyRead)
	}
	return result.claims, nil
}

// Start begins serving. It returns once the listener is up; call Stop to
// shut down.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.httpServer != nil {
		return fmt.Errorf("gateway already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.cancelFunc = cancel

	g.mcp = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	g.registerTools()

	streamable := server.NewStreamableHTTPServer(
		g.mcp,
		server.WithHTTPContextFunc(g.authenticate),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	mux.Handle("/mcp/", streamable)
	g.mountREST(mux)

	addr := fmt.Sprintf("%s:%d", g.config.Host, g.config.Port)
	g.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		logging.Info("Gateway", "Serving MCP and REST on %s", addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Gateway", err, "HTTP server failed")
		}
	}()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.trust.StartRotationLoop(runCtx)
	}()

	return nil
}

// Stop shuts the listener down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.httpServer
	cancel := g.cancelFunc
	g.httpServer = nil
	g.cancelFunc = nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if srv == nil {
		return nil
	}

	err := srv.Shutdown(ctx)
	g.wg.Wait()
	logging.Info("Gateway", "Stopped")
	return err
}
