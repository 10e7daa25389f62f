package platform

import (
	"context"
	"sync"

	"leaguelink/internal/api"
)

// Tool identifies one capability of an adapter.
type Tool string

const (
	ToolLeagueInfo   Tool = "getLeagueInfo"
	ToolStandings    Tool = "getStandings"
	ToolMatchups     Tool = "getMatchups"
	ToolRoster       Tool = "getRoster"
	ToolFreeAgents   Tool = "getFreeAgents"
	ToolTransactions Tool = "getTransactions"
)

// Request carries the resolved identifiers for one adapter call. The
// gateway fills UserID from the validated token and league fields either
// from the call arguments or the caller's default league.
type Request struct {
	UserID     string
	Sport      string
	LeagueID   string
	SeasonYear int
	TeamID     string

	// Week is the requested matchup week; zero means "ask the platform
	// for its current period first".
	Week int

	// Count limits transaction/free-agent results. Clamped by adapters.
	Count int

	// Position filters free agents when the platform supports it.
	Position string
}

// Adapter normalizes one upstream fantasy platform into the canonical
// schema. Tools the platform cannot serve return a NotSupported error
// rather than a partial result.
type Adapter interface {
	// Name is the platform identifier used in requests ("espn", "yahoo",
	// "sleeper").
	Name() string

	LeagueInfo(ctx context.Context, req Request) (*LeagueInfo, error)
	Standings(ctx context.Context, req Request) (*Standings, error)
	Matchups(ctx context.Context, req Request) (*Matchups, error)
	Roster(ctx context.Context, req Request) (*Roster, error)
	FreeAgents(ctx context.Context, req Request) ([]FreeAgent, error)
	Transactions(ctx context.Context, req Request) ([]Transaction, error)
}

// Discoverer is implemented by adapters that can enumerate the leagues a
// user belongs to, for platforms whose data is public enough to list them.
type Discoverer interface {
	DiscoverLeagues(ctx context.Context, userID, sport string, seasonYear int) ([]LeagueInfo, error)
}

// Registry resolves platform names to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its name, replacing any previous one.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get resolves a platform name.
func (r *Registry) Get(platform string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[platform]
	if !ok {
		return nil, api.NewPlatformNotSupportedError(platform)
	}
	return a, nil
}

// Names lists the registered platform names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
