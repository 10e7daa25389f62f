package league

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"leaguelink/internal/api"
	"leaguelink/internal/store"
	"leaguelink/pkg/logging"
)

// MaxLeaguesPerUser caps how many leagues a single user may register.
const MaxLeaguesPerUser = 10

// knownSports are the sport identifiers the platforms serve. A league with
// an unrecognized sport is still accepted, with a warning; some platforms
// introduce game ids faster than we track them.
var knownSports = map[string]bool{
	"football":   true,
	"basketball": true,
	"baseball":   true,
	"hockey":     true,
}

// League is a user-registered pointer into an upstream fantasy league.
type League struct {
	ID         string    `json:"id"`
	Platform   string    `json:"platform"`
	Sport      string    `json:"sport"`
	LeagueID   string    `json:"league_id"`
	SeasonYear int       `json:"season_year"`
	TeamID     string    `json:"team_id,omitempty"`
	Name       string    `json:"name,omitempty"`

	// Default marks this league as the fallback for its platform+sport
	// when a tool call omits explicit identifiers.
	Default bool `json:"default"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields required at write time.
func (l *League) Validate() error {
	if l.Platform == "" {
		return fmt.Errorf("platform is required")
	}
	if l.Sport == "" {
		return fmt.Errorf("sport is required")
	}
	if l.LeagueID == "" {
		return fmt.Errorf("league_id is required")
	}
	if l.SeasonYear < 2000 || l.SeasonYear > 2100 {
		return fmt.Errorf("season_year %d out of range", l.SeasonYear)
	}
	return nil
}

func (l *League) dupKey() string {
	return l.LeagueID + "/" + strings.ToLower(l.Sport)
}

// Registry stores each user's leagues as a single record so the cap and
// duplicate checks run atomically under the store's Update primitive.
type Registry struct {
	store store.Store
}

// NewRegistry creates a league registry over the given store.
func NewRegistry(st store.Store) *Registry {
	return &Registry{store: st}
}

// List returns all leagues for a user. Never errors on an empty account.
func (r *Registry) List(ctx context.Context, userID string) ([]League, error) {
	raw, err := r.store.Get(ctx, store.NamespaceLeagues, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading leagues: %w", err)
	}

	var leagues []League
	if err := json.Unmarshal(raw, &leagues); err != nil {
		return nil, fmt.Errorf("decoding leagues: %w", err)
	}

	return leagues, nil
}

// Add registers a league, enforcing the per-user cap and rejecting
// duplicates keyed by (league id, sport). When the new league is marked
// default, any previous default for the same platform+sport is unset.
func (r *Registry) Add(ctx context.Context, userID string, l League) (League, error) {
	if err := l.Validate(); err != nil {
		return League{}, err
	}

	if !knownSports[strings.ToLower(l.Sport)] {
		logging.Warn("League", "accepting league %s with unrecognized sport %q", l.LeagueID, l.Sport)
	}

	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().UTC()

	err := r.store.Update(ctx, store.NamespaceLeagues, userID, func(current []byte) ([]byte, error) {
		var leagues []League
		if current != nil {
			if err := json.Unmarshal(current, &leagues); err != nil {
				return nil, fmt.Errorf("decoding leagues: %w", err)
			}
		}

		if len(leagues) >= MaxLeaguesPerUser {
			return nil, api.NewLimitExceededError("leagues", MaxLeaguesPerUser)
		}
		for _, existing := range leagues {
			if existing.dupKey() == l.dupKey() {
				return nil, api.NewDuplicateError("league", l.dupKey())
			}
		}

		if l.Default {
			for i := range leagues {
				if leagues[i].Platform == l.Platform && strings.EqualFold(leagues[i].Sport, l.Sport) {
					leagues[i].Default = false
				}
			}
		}

		return json.Marshal(append(leagues, l))
	})
	if err != nil {
		return League{}, err
	}

	logging.Info("League", "added %s league %s for user %s", l.Platform, l.LeagueID, userID)
	return l, nil
}

// Delete removes a league by its registry id.
func (r *Registry) Delete(ctx context.Context, userID, leagueRecordID string) error {
	return r.store.Update(ctx, store.NamespaceLeagues, userID, func(current []byte) ([]byte, error) {
		var leagues []League
		if current != nil {
			if err := json.Unmarshal(current, &leagues); err != nil {
				return nil, fmt.Errorf("decoding leagues: %w", err)
			}
		}

		kept := leagues[:0]
		found := false
		for _, existing := range leagues {
			if existing.ID == leagueRecordID {
				found = true
				continue
			}
			kept = append(kept, existing)
		}
		if !found {
			return nil, api.NewNotFoundError("league", leagueRecordID)
		}

		return json.Marshal(kept)
	})
}

// SetTeam records the user's own team id within a league.
func (r *Registry) SetTeam(ctx context.Context, userID, leagueRecordID, teamID string) error {
	if teamID == "" {
		return fmt.Errorf("team_id is required")
	}

	return r.store.Update(ctx, store.NamespaceLeagues, userID, func(current []byte) ([]byte, error) {
		var leagues []League
		if current != nil {
			if err := json.Unmarshal(current, &leagues); err != nil {
				return nil, fmt.Errorf("decoding leagues: %w", err)
			}
		}

		for i := range leagues {
			if leagues[i].ID == leagueRecordID {
				leagues[i].TeamID = teamID
				return json.Marshal(leagues)
			}
		}

		return nil, api.NewNotFoundError("league", leagueRecordID)
	})
}

// DefaultFor resolves the saved league a request should fall back to. An
// empty platform or sport acts as a wildcard, so a tool call with no
// identifiers at all still lands on the caller's marked default. A league
// marked default wins; with none marked, a sole matching league serves as
// the implicit default. Ambiguous candidates resolve to nothing and the
// caller has to pass explicit identifiers.
func (r *Registry) DefaultFor(ctx context.Context, userID, platform, sport string) (League, error) {
	leagues, err := r.List(ctx, userID)
	if err != nil {
		return League{}, err
	}

	var matches, defaults []League
	for _, l := range leagues {
		if platform != "" && l.Platform != platform {
			continue
		}
		if sport != "" && !strings.EqualFold(l.Sport, sport) {
			continue
		}
		if l.Default {
			defaults = append(defaults, l)
		}
		matches = append(matches, l)
	}

	if len(defaults) == 1 {
		return defaults[0], nil
	}
	if len(defaults) == 0 && len(matches) == 1 {
		return matches[0], nil
	}

	return League{}, api.NewNotFoundError("default league", defaultScope(platform, sport))
}

func defaultScope(platform, sport string) string {
	if platform == "" {
		platform = "any"
	}
	if sport == "" {
		sport = "any"
	}
	return platform + "/" + sport
}
