package docs_tools

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/docs"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

const accountDescription = "Account name (default: 'default'). Used to manage multiple Google accounts."

// Tools returns every Docs tool
func Tools(sc *server.ServerContext) []common.Tool {
	tools := documentTools(sc)
	tools = append(tools, editTools(sc)...)
	return append(tools, markdownTools(sc)...)
}

// RegisterDocsTools registers the Docs tools with the MCP server and returns
// their names. Write tools are skipped on a read-only server.
func RegisterDocsTools(s *mcpserver.MCPServer, sc *server.ServerContext) []string {
	return common.Register(s, sc, Tools(sc))
}

// docsClient returns the Docs client for the account of a request
func docsClient(ctx context.Context, sc *server.ServerContext, args map[string]any) (*docs.Client, string, error) {
	account := common.GetAccountFromArgs(ctx, args)
	client, err := sc.DocsClient(ctx, account)
	return client, account, err
}
