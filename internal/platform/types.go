package platform

// LeagueInfo is the canonical league summary.
type LeagueInfo struct {
	Platform    string `json:"platform"`
	LeagueID    string `json:"league_id"`
	Name        string `json:"name"`
	Sport       string `json:"sport"`
	SeasonYear  int    `json:"season_year"`
	NumTeams    int    `json:"num_teams"`
	CurrentWeek int    `json:"current_week,omitempty"`
	ScoringType string `json:"scoring_type,omitempty"`
}

// TeamStanding is one row of the canonical standings table.
type TeamStanding struct {
	Rank          int     `json:"rank"`
	TeamID        string  `json:"team_id"`
	TeamName      string  `json:"team_name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	WinPct        float64 `json:"win_pct"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
}

// Standings is the canonical standings result.
type Standings struct {
	LeagueID   string         `json:"league_id"`
	SeasonYear int            `json:"season_year"`
	Teams      []TeamStanding `json:"teams"`
}

// MatchupSide is one team's line within a matchup.
type MatchupSide struct {
	TeamID   string  `json:"team_id"`
	TeamName string  `json:"team_name,omitempty"`
	Points   float64 `json:"points"`
}

// Winner designates the outcome of a matchup.
type Winner string

const (
	WinnerHome Winner = "home"
	WinnerAway Winner = "away"
	WinnerTie  Winner = "tie"
)

// Matchup pairs the two sides sharing an upstream matchup identifier.
// Home and away are assigned by arrival order in the upstream payload.
type Matchup struct {
	MatchupID string      `json:"matchup_id"`
	Week      int         `json:"week"`
	Home      MatchupSide `json:"home"`
	Away      MatchupSide `json:"away"`
	Winner    Winner      `json:"winner"`
}

// Matchups is the canonical matchup result for one week.
type Matchups struct {
	LeagueID string    `json:"league_id"`
	Week     int       `json:"week"`
	Matchups []Matchup `json:"matchups"`
}

// RosterPlayer is one player on a team's roster.
type RosterPlayer struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	Position     string `json:"position,omitempty"`
	ProTeam      string `json:"pro_team,omitempty"`
	Slot         string `json:"slot,omitempty"`
	InjuryStatus string `json:"injury_status,omitempty"`
}

// Roster is the canonical roster result.
type Roster struct {
	LeagueID string         `json:"league_id"`
	TeamID   string         `json:"team_id"`
	TeamName string         `json:"team_name,omitempty"`
	Players  []RosterPlayer `json:"players"`
}

// FreeAgent is one available player.
type FreeAgent struct {
	PlayerID     string  `json:"player_id"`
	Name         string  `json:"name"`
	Position     string  `json:"position,omitempty"`
	ProTeam      string  `json:"pro_team,omitempty"`
	PercentOwned float64 `json:"percent_owned,omitempty"`
}

// TransactionType classifies a transaction. Upstream entries without a
// recognizable type are dropped from results, not surfaced as errors.
type TransactionType string

const (
	TransactionAdd    TransactionType = "add"
	TransactionDrop   TransactionType = "drop"
	TransactionTrade  TransactionType = "trade"
	TransactionWaiver TransactionType = "waiver"
)

// TransactionStatus is the canonical processing state.
type TransactionStatus string

const (
	TransactionComplete TransactionStatus = "complete"
	TransactionFailed   TransactionStatus = "failed"
	TransactionPending  TransactionStatus = "pending"
	TransactionUnknown  TransactionStatus = "unknown"
)

// Transaction is the canonical flattened transaction record.
type Transaction struct {
	TransactionID  string            `json:"transaction_id"`
	Type           TransactionType   `json:"type"`
	Status         TransactionStatus `json:"status"`
	TimestampMs    int64             `json:"timestamp_ms"`
	Date           string            `json:"date"`
	TeamIDs        []string          `json:"team_ids"`
	PlayersAdded   []string          `json:"players_added"`
	PlayersDropped []string          `json:"players_dropped"`
	FAABBid        *int              `json:"faab_bid,omitempty"`
	DraftPicks     []string          `json:"draft_picks,omitempty"`
}
