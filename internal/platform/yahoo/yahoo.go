// Package yahoo adapts the OAuth-authenticated Yahoo fantasy API. Access
// tokens live in the credential vault; expired tokens are refreshed through
// the standard OAuth token endpoint and the refreshed pair is written back
// before the upstream call proceeds.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"leaguelink/internal/api"
	"leaguelink/internal/platform"
	"leaguelink/internal/vault"
	"leaguelink/pkg/logging"
)

// Name is the platform identifier.
const Name = "yahoo"

const defaultBaseURL = "https://fantasysports.yahooapis.com/fantasy/v2"

// gameKeys maps canonical sport names to Yahoo game codes.
var gameKeys = map[string]string{
	"football":   "nfl",
	"basketball": "nba",
	"baseball":   "mlb",
	"hockey":     "nhl",
}

// Adapter is the Yahoo platform adapter.
type Adapter struct {
	vault   *vault.Vault
	client  *http.Client
	baseURL string
	oauth   *oauth2.Config
}

// New creates the adapter. clientID and clientSecret are the registered
// Yahoo application credentials used for token refresh; baseURL overrides
// the production endpoint when non-empty.
func New(v *vault.Vault, clientID, clientSecret, baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		vault:   v,
		client:  platform.NewHTTPClient(),
		baseURL: baseURL,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Yahoo,
		},
	}
}

// Name implements platform.Adapter.
func (a *Adapter) Name() string { return Name }

// accessToken returns a usable access token, refreshing and re-persisting
// the stored pair when the access token has expired.
func (a *Adapter) accessToken(ctx context.Context, userID string) (string, error) {
	cred, err := a.vault.Fetch(ctx, userID, Name)
	if err != nil {
		if api.IsNotFound(err) {
			return "", api.NewCredentialsMissingError(Name)
		}
		return "", err
	}
	if cred.Kind != vault.KindOAuthTokens || cred.OAuthTokens == nil {
		return "", api.NewCredentialsMissingError(Name)
	}

	tokens := cred.OAuthTokens
	if !tokens.Expired() {
		return tokens.AccessToken, nil
	}
	if tokens.RefreshToken == "" {
		return "", api.NewCredentialsExpiredError(Name)
	}

	src := a.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       tokens.ExpiresAt,
	})
	fresh, err := src.Token()
	if err != nil {
		logging.Warn("Yahoo", "token refresh failed: %v", err)
		return "", api.NewCredentialsExpiredError(Name)
	}

	cred.OAuthTokens = &vault.OAuthTokens{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    fresh.Expiry,
	}
	if cred.OAuthTokens.RefreshToken == "" {
		cred.OAuthTokens.RefreshToken = tokens.RefreshToken
	}
	if err := a.vault.Store(ctx, userID, Name, cred); err != nil {
		return "", fmt.Errorf("persisting refreshed tokens: %w", err)
	}

	return fresh.AccessToken, nil
}

func (a *Adapter) get(ctx context.Context, userID, path string, out interface{}) error {
	token, err := a.accessToken(ctx, userID)
	if err != nil {
		return err
	}

	u := a.baseURL + path + "?format=json"
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building yahoo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return platform.DoJSON(ctx, a.client, Name, req, out)
}

// leagueKey builds the Yahoo league key ("nfl.l.12345").
func leagueKey(req platform.Request) (string, error) {
	game, ok := gameKeys[req.Sport]
	if !ok {
		return "", api.NewNotSupportedError(Name, "sport "+req.Sport)
	}
	return game + ".l." + url.PathEscape(req.LeagueID), nil
}

type yahooLeague struct {
	LeagueKey   string  `json:"league_key"`
	Name        string  `json:"name"`
	NumTeams    flexInt `json:"num_teams"`
	Season      flexInt `json:"season"`
	CurrentWeek flexInt `json:"current_week"`
	ScoringType string  `json:"scoring_type"`
}

type leagueEnvelope struct {
	FantasyContent struct {
		League yahooLeague `json:"league"`
	} `json:"fantasy_content"`
}

// LeagueInfo implements platform.Adapter.
func (a *Adapter) LeagueInfo(ctx context.Context, req platform.Request) (*platform.LeagueInfo, error) {
	key, err := leagueKey(req)
	if err != nil {
		return nil, err
	}

	var env leagueEnvelope
	if err := a.get(ctx, req.UserID, "/league/"+key+"/metadata", &env); err != nil {
		return nil, err
	}

	l := env.FantasyContent.League
	return &platform.LeagueInfo{
		Platform:    Name,
		LeagueID:    req.LeagueID,
		Name:        l.Name,
		Sport:       req.Sport,
		SeasonYear:  int(l.Season),
		NumTeams:    int(l.NumTeams),
		CurrentWeek: int(l.CurrentWeek),
		ScoringType: l.ScoringType,
	}, nil
}

type yahooTeam struct {
	TeamKey       string  `json:"team_key"`
	TeamID        flexInt `json:"team_id"`
	Name          string  `json:"name"`
	TeamStandings struct {
		OutcomeTotals struct {
			Wins   flexInt `json:"wins"`
			Losses flexInt `json:"losses"`
			Ties   flexInt `json:"ties"`
		} `json:"outcome_totals"`
		PointsFor     flexFloat `json:"points_for"`
		PointsAgainst flexFloat `json:"points_against"`
	} `json:"team_standings"`
	TeamPoints struct {
		Total flexFloat `json:"total"`
	} `json:"team_points"`
}

type standingsEnvelope struct {
	FantasyContent struct {
		League    yahooLeague     `json:"league"`
		Standings struct {
			Teams json.RawMessage `json:"teams"`
		} `json:"standings"`
	} `json:"fantasy_content"`
}

// Standings implements platform.Adapter. The teams collection arrives
// numeric-keyed and is run through the validating collection parser.
func (a *Adapter) Standings(ctx context.Context, req platform.Request) (*platform.Standings, error) {
	key, err := leagueKey(req)
	if err != nil {
		return nil, err
	}

	var env standingsEnvelope
	if err := a.get(ctx, req.UserID, "/league/"+key+"/standings", &env); err != nil {
		return nil, err
	}

	entries, err := collection(env.FantasyContent.Standings.Teams)
	if err != nil {
		return nil, fmt.Errorf("decoding yahoo standings: %w", err)
	}

	teams := make([]platform.TeamStanding, 0, len(entries))
	for _, entry := range entries {
		var t yahooTeam
		if err := wrapped(entry, "team", &t); err != nil {
			return nil, fmt.Errorf("decoding yahoo standings: %w", err)
		}
		teams = append(teams, platform.TeamStanding{
			TeamID:        strconv.Itoa(int(t.TeamID)),
			TeamName:      t.Name,
			Wins:          int(t.TeamStandings.OutcomeTotals.Wins),
			Losses:        int(t.TeamStandings.OutcomeTotals.Losses),
			Ties:          int(t.TeamStandings.OutcomeTotals.Ties),
			PointsFor:     float64(t.TeamStandings.PointsFor),
			PointsAgainst: float64(t.TeamStandings.PointsAgainst),
		})
	}
	platform.RankStandings(teams)

	return &platform.Standings{
		LeagueID:   req.LeagueID,
		SeasonYear: req.SeasonYear,
		Teams:      teams,
	}, nil
}

type matchupEnvelope struct {
	FantasyContent struct {
		League     yahooLeague     `json:"league"`
		Scoreboard struct {
			Week     flexInt         `json:"week"`
			Matchups json.RawMessage `json:"matchups"`
		} `json:"scoreboard"`
	} `json:"fantasy_content"`
}

type yahooMatchup struct {
	Week  flexInt         `json:"week"`
	Teams json.RawMessage `json:"teams"`
}

// Matchups implements platform.Adapter. A zero week resolves through the
// league's current week first.
func (a *Adapter) Matchups(ctx context.Context, req platform.Request) (*platform.Matchups, error) {
	key, err := leagueKey(req)
	if err != nil {
		return nil, err
	}

	week := req.Week
	if week == 0 {
		info, err := a.LeagueInfo(ctx, req)
		if err != nil {
			return nil, err
		}
		week = info.CurrentWeek
	}

	var env matchupEnvelope
	path := fmt.Sprintf("/league/%s/scoreboard;week=%d", key, week)
	if err := a.get(ctx, req.UserID, path, &env); err != nil {
		return nil, err
	}

	matchupEntries, err := collection(env.FantasyContent.Scoreboard.Matchups)
	if err != nil {
		return nil, fmt.Errorf("decoding yahoo scoreboard: %w", err)
	}

	entries := make([]platform.MatchupEntry, 0, 2*len(matchupEntries))
	for i, raw := range matchupEntries {
		var m yahooMatchup
		if err := wrapped(raw, "matchup", &m); err != nil {
			return nil, fmt.Errorf("decoding yahoo scoreboard: %w", err)
		}

		teamEntries, err := collection(m.Teams)
		if err != nil {
			return nil, fmt.Errorf("decoding yahoo matchup teams: %w", err)
		}

		// Yahoo groups the two sides under one matchup object; a
		// synthetic id keeps pairing uniform with the other platforms.
		id := strconv.Itoa(i + 1)
		for _, teamRaw := range teamEntries {
			var t yahooTeam
			if err := wrapped(teamRaw, "team", &t); err != nil {
				return nil, fmt.Errorf("decoding yahoo matchup teams: %w", err)
			}
			entries = append(entries, platform.MatchupEntry{
				MatchupID: id,
				Side: platform.MatchupSide{
					TeamID:   strconv.Itoa(int(t.TeamID)),
					TeamName: t.Name,
					Points:   float64(t.TeamPoints.Total),
				},
			})
		}
	}

	return &platform.Matchups{
		LeagueID: req.LeagueID,
		Week:     week,
		Matchups: platform.GroupMatchups(entries, week),
	}, nil
}

type yahooPlayer struct {
	PlayerKey string  `json:"player_key"`
	PlayerID  flexInt `json:"player_id"`
	Name      struct {
		Full string `json:"full"`
	} `json:"name"`
	DisplayPosition   string `json:"display_position"`
	EditorialTeamAbbr string `json:"editorial_team_abbr"`
	SelectedPosition  struct {
		Position string `json:"position"`
	} `json:"selected_position"`
	Status       string    `json:"status"`
	PercentOwned flexFloat `json:"percent_owned_value"`
}

type rosterEnvelope struct {
	FantasyContent struct {
		Team struct {
			TeamKey string `json:"team_key"`
			Name    string `json:"name"`
			Roster  struct {
				Players json.RawMessage `json:"players"`
			} `json:"roster"`
		} `json:"team"`
	} `json:"fantasy_content"`
}

// Roster implements platform.Adapter.
func (a *Adapter) Roster(ctx context.Context, req platform.Request) (*platform.Roster, error) {
	if req.TeamID == "" {
		return nil, api.NewNotFoundError("team", "no team id resolved for roster")
	}
	key, err := leagueKey(req)
	if err != nil {
		return nil, err
	}

	var env rosterEnvelope
	path := "/team/" + key + ".t." + url.PathEscape(req.TeamID) + "/roster"
	if err := a.get(ctx, req.UserID, path, &env); err != nil {
		return nil, err
	}

	entries, err := collection(env.FantasyContent.Team.Roster.Players)
	if err != nil {
		return nil, fmt.Errorf("decoding yahoo roster: %w", err)
	}

	players := make([]platform.RosterPlayer, 0, len(entries))
	for _, entry := range entries {
		var p yahooPlayer
		if err := wrapped(entry, "player", &p); err != nil {
			return nil, fmt.Errorf("decoding yahoo roster: %w", err)
		}
		players = append(players, platform.RosterPlayer{
			PlayerID:     strconv.Itoa(int(p.PlayerID)),
			Name:         p.Name.Full,
			Position:     p.DisplayPosition,
			ProTeam:      p.EditorialTeamAbbr,
			Slot:         p.SelectedPosition.Position,
			InjuryStatus: p.Status,
		})
	}

	return &platform.Roster{
		LeagueID: req.LeagueID,
		TeamID:   req.TeamID,
		TeamName: env.FantasyContent.Team.Name,
		Players:  players,
	}, nil
}

type playersEnvelope struct {
	FantasyContent struct {
		League  yahooLeague     `json:"league"`
		Players json.RawMessage `json:"players"`
	} `json:"fantasy_content"`
}

// FreeAgents implements platform.Adapter.
func (a *Adapter) FreeAgents(ctx context.Context, req platform.Request) ([]platform.FreeAgent, error) {
	key, err := leagueKey(req)
	if err != nil {
		return nil, err
	}

	count := platform.ClampTransactionCount(req.Count)
	path := fmt.Sprintf("/league/%s/players;status=FA;count=%d", key, count)
	if req.Position != "" {
		path += ";position=" + url.PathEscape(req.Position)
	}

	var env playersEnvelope
	if err := a.get(ctx, req.UserID, path, &env); err != nil {
		return nil, err
	}

	entries, err := collection(env.FantasyContent.Players)
	if err != nil {
		return nil, fmt.Errorf("decoding yahoo players: %w", err)
	}

	agents := make([]platform.FreeAgent, 0, len(entries))
	for _, entry := range entries {
		var p yahooPlayer
		if err := wrapped(entry, "player", &p); err != nil {
			return nil, fmt.Errorf("decoding yahoo players: %w", err)
		}
		agents = append(agents, platform.FreeAgent{
			PlayerID:     strconv.Itoa(int(p.PlayerID)),
			Name:         p.Name.Full,
			Position:     p.DisplayPosition,
			ProTeam:      p.EditorialTeamAbbr,
			PercentOwned: float64(p.PercentOwned),
		})
		if len(agents) == count {
			break
		}
	}

	return agents, nil
}
