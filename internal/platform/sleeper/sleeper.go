// Package sleeper adapts the public Sleeper API. Sleeper needs no secret
// material, only a stored username; points arrive split into whole and
// fractional-hundredths fields and matchups arrive as flat per-roster rows
// sharing a matchup id.
package sleeper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"leaguelink/internal/api"
	"leaguelink/internal/platform"
	"leaguelink/internal/vault"
)

// Name is the platform identifier.
const Name = "sleeper"

const defaultBaseURL = "https://api.sleeper.app/v1"

// sportKeys maps canonical sport names to Sleeper sport identifiers.
var sportKeys = map[string]string{
	"football":   "nfl",
	"basketball": "nba",
}

// Adapter is the Sleeper platform adapter.
type Adapter struct {
	vault   *vault.Vault
	client  *http.Client
	baseURL string
}

// New creates the adapter. baseURL overrides the production endpoint when
// non-empty.
func New(v *vault.Vault, baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		vault:   v,
		client:  platform.NewHTTPClient(),
		baseURL: baseURL,
	}
}

// Name implements platform.Adapter.
func (a *Adapter) Name() string { return Name }

func (a *Adapter) username(ctx context.Context, userID string) (string, error) {
	cred, err := a.vault.Fetch(ctx, userID, Name)
	if err != nil {
		if api.IsNotFound(err) {
			return "", api.NewCredentialsMissingError(Name)
		}
		return "", err
	}
	if cred.Kind != vault.KindUsernameRef || cred.UsernameRef == nil {
		return "", api.NewCredentialsMissingError(Name)
	}
	return cred.UsernameRef.Username, nil
}

func (a *Adapter) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building sleeper request: %w", err)
	}
	return platform.DoJSON(ctx, a.client, Name, req, out)
}

func sportKey(sport string) (string, error) {
	key, ok := sportKeys[sport]
	if !ok {
		return "", api.NewNotSupportedError(Name, "sport "+sport)
	}
	return key, nil
}

type sleeperLeague struct {
	LeagueID     string `json:"league_id"`
	Name         string `json:"name"`
	Sport        string `json:"sport"`
	Season       string `json:"season"`
	TotalRosters int    `json:"total_rosters"`
	Settings     struct {
		Leg int `json:"leg"`
	} `json:"settings"`
	ScoringSettings map[string]float64 `json:"scoring_settings"`
}

type sleeperRoster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
	Settings struct {
		Wins               int `json:"wins"`
		Losses             int `json:"losses"`
		Ties               int `json:"ties"`
		FPts               int `json:"fpts"`
		FPtsDecimal        int `json:"fpts_decimal"`
		FPtsAgainst        int `json:"fpts_against"`
		FPtsAgainstDecimal int `json:"fpts_against_decimal"`
	} `json:"settings"`
}

type sleeperUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Metadata    struct {
		TeamName string `json:"team_name"`
	} `json:"metadata"`
}

type sleeperMatchup struct {
	RosterID  int     `json:"roster_id"`
	MatchupID int     `json:"matchup_id"`
	Points    float64 `json:"points"`
}

type sleeperState struct {
	Week int `json:"week"`
}

// rostersAndUsers fetches both league listings concurrently and returns a
// roster-id to team-name map alongside the rosters.
func (a *Adapter) rostersAndUsers(ctx context.Context, leagueID string) ([]sleeperRoster, map[int]string, error) {
	var (
		rosters []sleeperRoster
		users   []sleeperUser
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.get(gctx, "/league/"+url.PathEscape(leagueID)+"/rosters", &rosters)
	})
	g.Go(func() error {
		return a.get(gctx, "/league/"+url.PathEscape(leagueID)+"/users", &users)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	byOwner := make(map[string]sleeperUser, len(users))
	for _, u := range users {
		byOwner[u.UserID] = u
	}

	names := make(map[int]string, len(rosters))
	for _, r := range rosters {
		names[r.RosterID] = teamName(byOwner[r.OwnerID], r.RosterID)
	}
	return rosters, names, nil
}

func teamName(u sleeperUser, rosterID int) string {
	if u.Metadata.TeamName != "" {
		return u.Metadata.TeamName
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "Roster " + strconv.Itoa(rosterID)
}

// LeagueInfo implements platform.Adapter.
func (a *Adapter) LeagueInfo(ctx context.Context, req platform.Request) (*platform.LeagueInfo, error) {
	if _, err := a.username(ctx, req.UserID); err != nil {
		return nil, err
	}
	sport, err := sportKey(req.Sport)
	if err != nil {
		return nil, err
	}

	var league sleeperLeague
	if err := a.get(ctx, "/league/"+url.PathEscape(req.LeagueID), &league); err != nil {
		return nil, err
	}

	var state sleeperState
	if err := a.get(ctx, "/state/"+sport, &state); err != nil {
		return nil, err
	}

	season, _ := strconv.Atoi(league.Season)
	return &platform.LeagueInfo{
		Platform:    Name,
		LeagueID:    league.LeagueID,
		Name:        league.Name,
		Sport:       req.Sport,
		SeasonYear:  season,
		NumTeams:    league.TotalRosters,
		CurrentWeek: state.Week,
	}, nil
}

// Standings implements platform.Adapter. Sleeper splits points into a whole
// and a fractional-hundredths field; both halves are combined here.
func (a *Adapter) Standings(ctx context.Context, req platform.Request) (*platform.Standings, error) {
	if _, err := a.username(ctx, req.UserID); err != nil {
		return nil, err
	}

	rosters, names, err := a.rostersAndUsers(ctx, req.LeagueID)
	if err != nil {
		return nil, err
	}

	teams := make([]platform.TeamStanding, 0, len(rosters))
	for _, r := range rosters {
		teams = append(teams, platform.TeamStanding{
			TeamID:        strconv.Itoa(r.RosterID),
			TeamName:      names[r.RosterID],
			Wins:          r.Settings.Wins,
			Losses:        r.Settings.Losses,
			Ties:          r.Settings.Ties,
			PointsFor:     platform.CombinePoints(r.Settings.FPts, r.Settings.FPtsDecimal),
			PointsAgainst: platform.CombinePoints(r.Settings.FPtsAgainst, r.Settings.FPtsAgainstDecimal),
		})
	}
	platform.RankStandings(teams)

	return &platform.Standings{
		LeagueID:   req.LeagueID,
		SeasonYear: req.SeasonYear,
		Teams:      teams,
	}, nil
}

// currentWeek reads the sport-wide current week from the state endpoint.
func (a *Adapter) currentWeek(ctx context.Context, sport string) (int, error) {
	var state sleeperState
	if err := a.get(ctx, "/state/"+sport, &state); err != nil {
		return 0, err
	}
	return state.Week, nil
}

// Matchups implements platform.Adapter. Rows sharing a matchup_id are
// paired in arrival order.
func (a *Adapter) Matchups(ctx context.Context, req platform.Request) (*platform.Matchups, error) {
	if _, err := a.username(ctx, req.UserID); err != nil {
		return nil, err
	}
	sport, err := sportKey(req.Sport)
	if err != nil {
		return nil, err
	}

	week := req.Week
	if week == 0 {
		current, err := a.currentWeek(ctx, sport)
		if err != nil {
			return nil, err
		}
		week = current
	}

	var rows []sleeperMatchup
	path := fmt.Sprintf("/league/%s/matchups/%d", url.PathEscape(req.LeagueID), week)
	if err := a.get(ctx, path, &rows); err != nil {
		return nil, err
	}

	_, names, err := a.rostersAndUsers(ctx, req.LeagueID)
	if err != nil {
		return nil, err
	}

	entries := make([]platform.MatchupEntry, 0, len(rows))
	for _, row := range rows {
		if row.MatchupID == 0 {
			continue
		}
		entries = append(entries, platform.MatchupEntry{
			MatchupID: strconv.Itoa(row.MatchupID),
			Side: platform.MatchupSide{
				TeamID:   strconv.Itoa(row.RosterID),
				TeamName: names[row.RosterID],
				Points:   row.Points,
			},
		})
	}

	return &platform.Matchups{
		LeagueID: req.LeagueID,
		Week:     week,
		Matchups: platform.GroupMatchups(entries, week),
	}, nil
}

// Roster implements platform.Adapter. Sleeper rosters carry player ids
// only; names require the full player dump, which is out of proportion for
// a roster call, so ids double as names.
func (a *Adapter) Roster(ctx context.Context, req platform.Request) (*platform.Roster, error) {
	if _, err := a.username(ctx, req.UserID); err != nil {
		return nil, err
	}
	if req.TeamID == "" {
		return nil, api.NewNotFoundError("team", "no team id resolved for roster")
	}

	rosters, names, err := a.rostersAndUsers(ctx, req.LeagueID)
	if err != nil {
		return nil, err
	}

	for _, r := range rosters {
		id := strconv.Itoa(r.RosterID)
		if id != req.TeamID {
			continue
		}

		starters := make(map[string]struct{}, len(r.Starters))
		for _, s := range r.Starters {
			starters[s] = struct{}{}
		}

		players := make([]platform.RosterPlayer, 0, len(r.Players))
		for _, p := range r.Players {
			slot := "BN"
			if _, ok := starters[p]; ok {
				slot = "STARTER"
			}
			players = append(players, platform.RosterPlayer{
				PlayerID: p,
				Name:     p,
				Slot:     slot,
			})
		}

		return &platform.Roster{
			LeagueID: req.LeagueID,
			TeamID:   id,
			TeamName: names[r.RosterID],
			Players:  players,
		}, nil
	}

	return nil, api.NewNotFoundError("team", req.TeamID)
}

// FreeAgents implements platform.Adapter. Sleeper has no scoped free-agent
// listing; the only source is the full multi-megabyte player dump.
func (a *Adapter) FreeAgents(ctx context.Context, req platform.Request) ([]platform.FreeAgent, error) {
	return nil, api.NewNotSupportedError(Name, string(platform.ToolFreeAgents))
}

// DiscoverLeagues implements platform.Discoverer using the stored username.
func (a *Adapter) DiscoverLeagues(ctx context.Context, userID, sport string, seasonYear int) ([]platform.LeagueInfo, error) {
	username, err := a.username(ctx, userID)
	if err != nil {
		return nil, err
	}
	key, err := sportKey(sport)
	if err != nil {
		return nil, err
	}

	var user sleeperUser
	if err := a.get(ctx, "/user/"+url.PathEscape(username), &user); err != nil {
		return nil, err
	}
	if user.UserID == "" {
		return nil, api.NewNotFoundError("user", username)
	}

	var leagues []sleeperLeague
	path := fmt.Sprintf("/user/%s/leagues/%s/%d", url.PathEscape(user.UserID), key, seasonYear)
	if err := a.get(ctx, path, &leagues); err != nil {
		return nil, err
	}

	out := make([]platform.LeagueInfo, 0, len(leagues))
	for _, l := range leagues {
		season, _ := strconv.Atoi(l.Season)
		out = append(out, platform.LeagueInfo{
			Platform:   Name,
			LeagueID:   l.LeagueID,
			Name:       l.Name,
			Sport:      sport,
			SeasonYear: season,
			NumTeams:   l.TotalRosters,
		})
	}
	return out, nil
}
