// Package espn adapts the cookie-authenticated ESPN fantasy API to the
// canonical schema. Every call needs a stored cookie pair (SWID plus the
// espn_s2 session cookie); the adapter fails fast with a credentials error
// before touching the network when the pair is absent.
package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"leaguelink/internal/api"
	"leaguelink/internal/platform"
	"leaguelink/internal/vault"
)

// Name is the platform identifier.
const Name = "espn"

// defaultBaseURL is the read API ESPN serves league data from.
const defaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games"

// gameKeys maps canonical sport names to ESPN game identifiers.
var gameKeys = map[string]string{
	"football":   "ffl",
	"baseball":   "flb",
	"basketball": "fba",
	"hockey":     "fhl",
}

// positionNames maps ESPN default position ids for football. Other sports
// fall back to the raw id.
var positionNames = map[int]string{
	1:  "QB",
	2:  "RB",
	3:  "WR",
	4:  "TE",
	5:  "K",
	16: "D/ST",
}

// Adapter is the ESPN platform adapter.
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

// cookies fetches the caller's cookie pair, distinguishing never-configured
// from wrong-shape credentials.
func (a *Adapter) cookies(ctx context.Context, userID string) (*vault.CookiePair, error) {
	cred, err := a.vault.Fetch(ctx, userID, Name)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, api.NewCredentialsMissingError(Name)
		}
		return nil, err
	}
	if cred.Kind != vault.KindCookiePair || cred.CookiePair == nil {
		return nil, api.NewCredentialsMissingError(Name)
	}
	return cred.CookiePair, nil
}

// leagueURL builds the league endpoint for the given views.
func (a *Adapter) leagueURL(req platform.Request, views []string, extra url.Values) (string, error) {
	game, ok := gameKeys[req.Sport]
	if !ok {
		return "", api.NewNotSupportedError(Name, "sport "+req.Sport)
	}

	q := url.Values{}
	for _, v := range views {
		q.Add("view", v)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	return fmt.Sprintf("%s/%s/seasons/%d/segments/0/leagues/%s?%s",
		a.baseURL, game, req.SeasonYear, url.PathEscape(req.LeagueID), q.Encode()), nil
}

// get performs an authenticated league fetch and decodes into out.
func (a *Adapter) get(ctx context.Context, req platform.Request, views []string, extra url.Values, out interface{}) error {
	pair, err := a.cookies(ctx, req.UserID)
	if err != nil {
		return err
	}

	u, err := a.leagueURL(req, views, extra)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building espn request: %w", err)
	}
	httpReq.AddCookie(&http.Cookie{Name: "SWID", Value: pair.SWID})
	httpReq.AddCookie(&http.Cookie{Name: "espn_s2", Value: pair.SessionCookie})

	return platform.DoJSON(ctx, a.client, Name, httpReq, out)
}

// leagueResponse is the slice of the ESPN league payload the adapter reads.
type leagueResponse struct {
	ID       int    `json:"id"`
	Settings struct {
		Name            string `json:"name"`
		Size            int    `json:"size"`
		ScoringSettings struct {
			ScoringType string `json:"scoringType"`
		} `json:"scoringSettings"`
	} `json:"settings"`
	Status struct {
		CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
	} `json:"status"`
	Teams    []espnTeam     `json:"teams"`
	Schedule []espnSchedule `json:"schedule"`
}

type espnTeam struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Nickname string `json:"nickname"`
	Record   struct {
		Overall struct {
			Wins          int     `json:"wins"`
			Losses        int     `json:"losses"`
			Ties          int     `json:"ties"`
			PointsFor     float64 `json:"pointsFor"`
			PointsAgainst float64 `json:"pointsAgainst"`
		} `json:"overall"`
	} `json:"record"`
	Roster struct {
		Entries []espnRosterEntry `json:"entries"`
	} `json:"roster"`
}

type espnSchedule struct {
	ID              int              `json:"id"`
	MatchupPeriodID int              `json:"matchupPeriodId"`
	Home            espnScheduleSide `json:"home"`
	Away            espnScheduleSide `json:"away"`
}

type espnScheduleSide struct {
	TeamID      int     `json:"teamId"`
	TotalPoints float64 `json:"totalPoints"`
}

type espnRosterEntry struct {
	LineupSlotID     int `json:"lineupSlotId"`
	PlayerPoolEntry  struct {
		Player espnPlayer `json:"player"`
	} `json:"playerPoolEntry"`
}

type espnPlayer struct {
	ID                int    `json:"id"`
	FullName          string `json:"fullName"`
	DefaultPositionID int    `json:"defaultPositionId"`
	ProTeamID         int    `json:"proTeamId"`
	InjuryStatus      string `json:"injuryStatus"`
	Ownership         struct {
		PercentOwned float64 `json:"percentOwned"`
	} `json:"ownership"`
}

func (t *espnTeam) displayName() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Location != "" || t.Nickname != "" {
		return trimSpaceJoin(t.Location, t.Nickname)
	}
	return strconv.Itoa(t.ID)
}

func trimSpaceJoin(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// LeagueInfo implements platform.Adapter.
func (a *Adapter) LeagueInfo(ctx context.Context, req platform.Request) (*platform.LeagueInfo, error) {
	var resp leagueResponse
	if err := a.get(ctx, req, []string{"mSettings", "mStatus"}, nil, &resp); err != nil {
		return nil, err
	}

	return &platform.LeagueInfo{
		Platform:    Name,
		LeagueID:    req.LeagueID,
		Name:        resp.Settings.Name,
		Sport:       req.Sport,
		SeasonYear:  req.SeasonYear,
		NumTeams:    resp.Settings.Size,
		CurrentWeek: resp.Status.CurrentMatchupPeriod,
		ScoringType: resp.Settings.ScoringSettings.ScoringType,
	}, nil
}

// Standings implements platform.Adapter.
func (a *Adapter) Standings(ctx context.Context, req platform.Request) (*platform.Standings, error) {
	var resp leagueResponse
	if err := a.get(ctx, req, []string{"mTeam"}, nil, &resp); err != nil {
		return nil, err
	}

	teams := make([]platform.TeamStanding, 0, len(resp.Teams))
	for _, t := range resp.Teams {
		teams = append(teams, platform.TeamStanding{
			TeamID:        strconv.Itoa(t.ID),
			TeamName:      t.displayName(),
			Wins:          t.Record.Overall.Wins,
			Losses:        t.Record.Overall.Losses,
			Ties:          t.Record.Overall.Ties,
			PointsFor:     t.Record.Overall.PointsFor,
			PointsAgainst: t.Record.Overall.PointsAgainst,
		})
	}
	platform.RankStandings(teams)

	return &platform.Standings{
		LeagueID:   req.LeagueID,
		SeasonYear: req.SeasonYear,
		Teams:      teams,
	}, nil
}

// currentPeriod asks ESPN for the league's current matchup period.
func (a *Adapter) currentPeriod(ctx context.Context, req platform.Request) (int, error) {
	var resp leagueResponse
	if err := a.get(ctx, req, []string{"mStatus"}, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Status.CurrentMatchupPeriod, nil
}

// Matchups implements platform.Adapter. A zero week resolves to the
// league's current matchup period first.
func (a *Adapter) Matchups(ctx context.Context, req platform.Request) (*platform.Matchups, error) {
	week := req.Week
	if week == 0 {
		current, err := a.currentPeriod(ctx, req)
		if err != nil {
			return nil, err
		}
		week = current
	}

	var resp leagueResponse
	if err := a.get(ctx, req, []string{"mMatchupScore", "mTeam"}, nil, &resp); err != nil {
		return nil, err
	}

	names := make(map[int]string, len(resp.Teams))
	for _, t := range resp.Teams {
		names[t.ID] = t.displayName()
	}

	entries := make([]platform.MatchupEntry, 0, 2*len(resp.Schedule))
	for _, s := range resp.Schedule {
		if s.MatchupPeriodID != week {
			continue
		}
		id := strconv.Itoa(s.ID)
		entries = append(entries,
			platform.MatchupEntry{MatchupID: id, Side: platform.MatchupSide{
				TeamID:   strconv.Itoa(s.Home.TeamID),
				TeamName: names[s.Home.TeamID],
				Points:   s.Home.TotalPoints,
			}},
			platform.MatchupEntry{MatchupID: id, Side: platform.MatchupSide{
				TeamID:   strconv.Itoa(s.Away.TeamID),
				TeamName: names[s.Away.TeamID],
				Points:   s.Away.TotalPoints,
			}},
		)
	}

	return &platform.Matchups{
		LeagueID: req.LeagueID,
		Week:     week,
		Matchups: platform.GroupMatchups(entries, week),
	}, nil
}

// Roster implements platform.Adapter.
func (a *Adapter) Roster(ctx context.Context, req platform.Request) (*platform.Roster, error) {
	if req.TeamID == "" {
		return nil, api.NewNotFoundError("team", "no team id resolved for roster")
	}

	var resp leagueResponse
	if err := a.get(ctx, req, []string{"mRoster", "mTeam"}, nil, &resp); err != nil {
		return nil, err
	}

	for _, t := range resp.Teams {
		if strconv.Itoa(t.ID) != req.TeamID {
			continue
		}

		players := make([]platform.RosterPlayer, 0, len(t.Roster.Entries))
		for _, e := range t.Roster.Entries {
			p := e.PlayerPoolEntry.Player
			players = append(players, platform.RosterPlayer{
				PlayerID:     strconv.Itoa(p.ID),
				Name:         p.FullName,
				Position:     positionName(p.DefaultPositionID),
				Slot:         strconv.Itoa(e.LineupSlotID),
				InjuryStatus: p.InjuryStatus,
			})
		}

		return &platform.Roster{
			LeagueID: req.LeagueID,
			TeamID:   req.TeamID,
			TeamName: t.displayName(),
			Players:  players,
		}, nil
	}

	return nil, api.NewNotFoundError("team", req.TeamID)
}

type playersResponse struct {
	Players []struct {
		Player espnPlayer `json:"player"`
		Status string     `json:"status"`
	} `json:"players"`
}

// FreeAgents implements platform.Adapter.
func (a *Adapter) FreeAgents(ctx context.Context, req platform.Request) ([]platform.FreeAgent, error) {
	var resp playersResponse
	if err := a.get(ctx, req, []string{"kona_player_info"}, nil, &resp); err != nil {
		return nil, err
	}

	count := platform.ClampTransactionCount(req.Count)
	agents := make([]platform.FreeAgent, 0, count)
	for _, entry := range resp.Players {
		if entry.Status != "" && entry.Status != "FREEAGENT" && entry.Status != "WAIVERS" {
			continue
		}
		pos := positionName(entry.Player.DefaultPositionID)
		if req.Position != "" && pos != req.Position {
			continue
		}
		agents = append(agents, platform.FreeAgent{
			PlayerID:     strconv.Itoa(entry.Player.ID),
			Name:         entry.Player.FullName,
			Position:     pos,
			PercentOwned: entry.Player.Ownership.PercentOwned,
		})
		if len(agents) == count {
			break
		}
	}

	return agents, nil
}

func positionName(id int) string {
	if name, ok := positionNames[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}
