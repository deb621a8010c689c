package drive_tools

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/drive"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

const accountDescription = "Account name (default: 'default'). Used to manage multiple Google accounts."

// Tools returns every Drive tool
func Tools(sc *server.ServerContext) []common.Tool {
	return append(fileTools(sc), folderTools(sc)...)
}

// RegisterDriveTools registers the Drive tools with the MCP server and
// returns their names. Write tools are skipped on a read-only server.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) []string {
	return common.Register(s, sc, Tools(sc))
}

// driveClient returns the Drive client for the account of a request
func driveClient(ctx context.Context, sc *server.ServerContext, args map[string]any) (*drive.Client, string, error) {
	account := common.GetAccountFromArgs(ctx, args)
	client, err := sc.DriveClient(ctx, account)
	return client, account, err
}
