package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/logging"
	"github.com/teemow/gdrive-mcp/internal/server"
)

// Tool is an MCP tool together with what it does to Google
type Tool struct {
	Definition mcp.Tool
	Handler    mcpserver.ToolHandlerFunc

	// Service and Operation label metrics and the audit log
	Service   string
	Operation string

	// Write tools are only registered when the server is not read-only
	Write bool
}

// Register adds tools to s, skipping write tools on a read-only server.
// It returns the names of the registered tools.
func Register(s *mcpserver.MCPServer, sc *server.ServerContext, tools []Tool) []string {
	var names []string
	for _, tool := range tools {
		if tool.Write && sc.ReadOnly() {
			continue
		}
		s.AddTool(tool.Definition, InstrumentedToolHandler(tool, sc))
		names = append(names, tool.Definition.Name)
	}
	return names
}

// InstrumentedToolHandler wraps a tool handler with a span, tool metrics and
// an audit log entry. A result with IsError counts as a failure.
func InstrumentedToolHandler(tool Tool, sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	name := tool.Definition.Name

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := GetAccountFromArgs(ctx, request.GetArguments())

		ctx, span := instrumentation.StartToolSpan(ctx, name,
			attribute.String(instrumentation.SpanAttrService, tool.Service),
			attribute.String(instrumentation.SpanAttrOperation, tool.Operation),
			attribute.Bool(instrumentation.SpanAttrReadOnly, !tool.Write),
		)
		invocation := instrumentation.NewToolInvocation(name).
			WithAccount(account).
			WithService(tool.Service, tool.Operation).
			WithReadOnly(!tool.Write).
			WithSpanContext(ctx)
		start := time.Now()

		result, err := tool.Handler(ctx, request)

		success := err == nil && (result == nil || !result.IsError)
		errMsg := ""
		switch {
		case err != nil:
			errMsg = err.Error()
		case result != nil && result.IsError:
			errMsg = resultText(result)
		}
		invocation.Complete(success, errMsg)

		sc.Metrics().RecordToolInvocation(ctx, name, invocation.Status(), account, time.Since(start))
		sc.AuditLogger().LogToolInvocation(invocation)
		sc.Logger().Debug("Tool invoked",
			logging.Tool(name),
			logging.Account(account),
			logging.Status(invocation.Status()),
		)

		if err == nil && !success {
			span.SetAttributes(attribute.String("mcp.error", errMsg))
		}
		instrumentation.EndSpan(span, err)
		return result, err
	}
}

// resultText returns the text of the first text content of a result
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		switch text := c.(type) {
		case mcp.TextContent:
			return text.Text
		case *mcp.TextContent:
			return text.Text
		}
	}
	return ""
}
