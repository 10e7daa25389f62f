package platform

import (
	"math"
	"sort"
	"time"
)

// MaxTransactions is the upper bound on returned transactions regardless of
// the requested count.
const MaxTransactions = 100

// RankStandings sorts teams by descending wins with descending points-for as
// the tiebreaker, assigns 1-based ranks in place, and fills win percentage.
func RankStandings(teams []TeamStanding) {
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].Wins != teams[j].Wins {
			return teams[i].Wins > teams[j].Wins
		}
		return teams[i].PointsFor > teams[j].PointsFor
	})

	for i := range teams {
		teams[i].Rank = i + 1
		teams[i].WinPct = WinPct(teams[i].Wins, teams[i].Losses, teams[i].Ties)
	}
}

// WinPct computes wins/(wins+losses+ties) rounded to 3 decimals. Zero games
// played yields 0, not NaN.
func WinPct(wins, losses, ties int) float64 {
	games := wins + losses + ties
	if games == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(games)*1000) / 1000
}

// CombinePoints merges an integer points field with a fractional-hundredths
// field into a single value, the way platforms that split "1400" and "25"
// mean 1400.25.
func CombinePoints(whole int, fraction int) float64 {
	return float64(whole) + float64(fraction)/100
}

// MatchupEntry is one team's line as it arrives from upstream, before
// pairing. Entries sharing a MatchupID form one matchup.
type MatchupEntry struct {
	MatchupID string
	Side      MatchupSide
}

// GroupMatchups pairs entries by matchup id. The first-arriving entry of a
// pair becomes home, the second away; winner is decided by points. Entries
// without a partner (bye weeks) are dropped.
func GroupMatchups(entries []MatchupEntry, week int) []Matchup {
	order := make([]string, 0)
	grouped := make(map[string][]MatchupSide)

	for _, e := range entries {
		if e.MatchupID == "" {
			continue
		}
		if _, seen := grouped[e.MatchupID]; !seen {
			order = append(order, e.MatchupID)
		}
		grouped[e.MatchupID] = append(grouped[e.MatchupID], e.Side)
	}

	matchups := make([]Matchup, 0, len(order))
	for _, id := range order {
		sides := grouped[id]
		if len(sides) < 2 {
			continue
		}

		m := Matchup{
			MatchupID: id,
			Week:      week,
			Home:      sides[0],
			Away:      sides[1],
		}
		switch {
		case m.Home.Points > m.Away.Points:
			m.Winner = WinnerHome
		case m.Away.Points > m.Home.Points:
			m.Winner = WinnerAway
		default:
			m.Winner = WinnerTie
		}
		matchups = append(matchups, m)
	}

	return matchups
}

// ClampTransactionCount bounds a requested count to [1, MaxTransactions].
// Non-positive requests get the maximum.
func ClampTransactionCount(requested int) int {
	if requested <= 0 || requested > MaxTransactions {
		return MaxTransactions
	}
	return requested
}

// FormatTransactionDate renders a millisecond timestamp as a UTC date string.
func FormatTransactionDate(timestampMs int64) string {
	if timestampMs <= 0 {
		return ""
	}
	return time.UnixMilli(timestampMs).UTC().Format("2006-01-02")
}
