package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"leaguelink/internal/api"
	"leaguelink/internal/platform"
	"leaguelink/pkg/logging"
)

// registerTools adds the six fantasy tools to the MCP server. All tools
// share the same league-identifier arguments; roster additionally needs a
// team and free agents accept a position filter.
func (g *Gateway) registerTools() {
	common := []mcp.ToolOption{
		mcp.WithString("platform", mcp.Description("Platform name (espn, yahoo, sleeper). Defaults to your default league's platform.")),
		mcp.WithString("sport", mcp.Description("Sport (football, basketball, baseball, hockey).")),
		mcp.WithString("league_id", mcp.Description("Platform league identifier. Defaults to your default league.")),
		mcp.WithNumber("season_year", mcp.Description("Season year. Defaults to the saved league's season.")),
	}

	tool := func(name platform.Tool, description string, extra ...mcp.ToolOption) mcp.Tool {
		opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, common...)
		opts = append(opts, extra...)
		return mcp.NewTool(string(name), opts...)
	}

	g.mcp.AddTool(
		tool(platform.ToolLeagueInfo, "Get league name, size, current week and scoring type."),
		g.handleTool(platform.ToolLeagueInfo))
	g.mcp.AddTool(
		tool(platform.ToolStandings, "Get league standings ranked by wins with points-for tiebreak."),
		g.handleTool(platform.ToolStandings))
	g.mcp.AddTool(
		tool(platform.ToolMatchups, "Get weekly matchups with scores and winners.",
			mcp.WithNumber("week", mcp.Description("Matchup week. Defaults to the platform's current week."))),
		g.handleTool(platform.ToolMatchups))
	g.mcp.AddTool(
		tool(platform.ToolRoster, "Get a team's roster.",
			mcp.WithString("team_id", mcp.Description("Team identifier. Defaults to your saved team for the league."))),
		g.handleTool(platform.ToolRoster))
	g.mcp.AddTool(
		tool(platform.ToolFreeAgents, "List available free agents.",
			mcp.WithString("position", mcp.Description("Optional position filter.")),
			mcp.WithNumber("count", mcp.Description("Maximum number of players to return."))),
		g.handleTool(platform.ToolFreeAgents))
	g.mcp.AddTool(
		tool(platform.ToolTransactions, "List recent league transactions.",
			mcp.WithNumber("week", mcp.Description("Transaction week, where the platform scopes transactions by week.")),
			mcp.WithNumber("count", mcp.Description("Maximum number of transactions to return."))),
		g.handleTool(platform.ToolTransactions))
}

// toolArgs is the decoded argument set shared by all tools.
type toolArgs struct {
	Platform   string
	Sport      string
	LeagueID   string
	SeasonYear int
	TeamID     string
	Week       int
	Count      int
	Position   string
}

func decodeArgs(req mcp.CallToolRequest) toolArgs {
	args, _ := req.Params.Arguments.(map[string]interface{})

	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}
	num := func(key string) int {
		v, ok := args[key].(float64)
		if !ok {
			return 0
		}
		return int(v)
	}

	return toolArgs{
		Platform:   str("platform"),
		Sport:      str("sport"),
		LeagueID:   str("league_id"),
		SeasonYear: num("season_year"),
		TeamID:     str("team_id"),
		Week:       num("week"),
		Count:      num("count"),
		Position:   str("position"),
	}
}

// resolve fills missing league identifiers from the caller's saved leagues,
// preferring the marked default for the requested platform and sport.
func (g *Gateway) resolve(ctx context.Context, userID string, args toolArgs) (string, platform.Request, error) {
	req := platform.Request{
		UserID:     userID,
		Sport:      args.Sport,
		LeagueID:   args.LeagueID,
		SeasonYear: args.SeasonYear,
		TeamID:     args.TeamID,
		Week:       args.Week,
		Count:      args.Count,
		Position:   args.Position,
	}

	platformName := args.Platform
	if platformName == "" || req.LeagueID == "" {
		saved, err := g.leagues.DefaultFor(ctx, userID, platformName, req.Sport)
		if err != nil {
			return "", platform.Request{}, err
		}
		platformName = saved.Platform
		if req.LeagueID == "" {
			req.LeagueID = saved.LeagueID
		}
		if req.Sport == "" {
			req.Sport = saved.Sport
		}
		if req.SeasonYear == 0 {
			req.SeasonYear = saved.SeasonYear
		}
		if req.TeamID == "" {
			req.TeamID = saved.TeamID
		}
	}

	if req.SeasonYear == 0 {
		req.SeasonYear = time.Now().UTC().Year()
	}

	return platformName, req, nil
}

// handleTool builds the handler for one tool. The pipeline is identical for
// every tool; only the dispatch step differs.
func (g *Gateway) handleTool(tool platform.Tool) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		claims, err := claimsFrom(ctx)
		if err != nil {
			return toolError(err), nil
		}

		args := decodeArgs(req)
		platformName, preq, err := g.resolve(ctx, claims.Subject, args)
		if err != nil {
			return toolError(err), nil
		}

		adapter, err := g.adapters.Get(platformName)
		if err != nil {
			return toolError(err), nil
		}

		result, err := dispatch(ctx, adapter, tool, preq)
		if err != nil {
			logging.Debug("Gateway", "tool %s failed on %s: %v", tool, platformName, err)
			return toolError(err), nil
		}

		body, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func dispatch(ctx context.Context, adapter platform.Adapter, tool platform.Tool, req platform.Request) (interface{}, error) {
	switch tool {
	case platform.ToolLeagueInfo:
		return adapter.LeagueInfo(ctx, req)
	case platform.ToolStandings:
		return adapter.Standings(ctx, req)
	case platform.ToolMatchups:
		return adapter.Matchups(ctx, req)
	case platform.ToolRoster:
		return adapter.Roster(ctx, req)
	case platform.ToolFreeAgents:
		return adapter.FreeAgents(ctx, req)
	case platform.ToolTransactions:
		return adapter.Transactions(ctx, req)
	default:
		return nil, api.NewNotFoundError("tool", string(tool))
	}
}
