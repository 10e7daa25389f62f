// Package league tracks which upstream fantasy leagues each user has
// registered, which team is theirs in each, and which league is the default
// for a platform+sport pair when a tool call omits identifiers.
//
// A user's leagues are stored as one record so the 10-league cap and the
// (league id, sport) duplicate check are enforced atomically.
package league
