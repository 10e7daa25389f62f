package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"leaguelink/internal/api"
)

// toolErrorBody is the JSON shape every failed tool call returns. The raw
// upstream response never appears here; only the canonical code and a
// human-readable message do.
type toolErrorBody struct {
	Code    api.Code `json:"code"`
	Message string   `json:"message"`
}

// toolError translates any error from the pipeline into a tool-level error
// result. This is the only place adapter and store errors become
// client-visible text.
func toolError(err error) *mcp.CallToolResult {
	body := toolErrorBody{
		Code:    api.CodeOf(err),
		Message: err.Error(),
	}

	encoded, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf(`{"code":%q,"message":"internal error"}`, api.CodeInternal))
	}
	return mcp.NewToolResultError(string(encoded))
}
