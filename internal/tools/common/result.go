package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gdrive-mcp/internal/google"
)

// JSONResult renders v as indented JSON, prefixed by an optional summary line
func JSONResult(summary string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	if summary == "" {
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(summary + "\n" + string(data)), nil
}

// ErrorResult turns err into a tool error. Authentication failures get
// instructions for re-authenticating the account.
func ErrorResult(account, action string, err error) *mcp.CallToolResult {
	if google.IsAuthError(err) {
		return mcp.NewToolResultError(google.AuthErrorMessage(account, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

// InvalidArguments turns a validation error into a tool error
func InvalidArguments(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Invalid arguments: " + err.Error())
}
