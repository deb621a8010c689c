package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gdrive-mcp/internal/instrumentation"
)

func testTool(name string, write bool, handler mcpserver.ToolHandlerFunc) Tool {
	return Tool{
		Definition: mcp.NewTool(name, mcp.WithDescription("test tool")),
		Handler:    handler,
		Service:    instrumentation.ServiceDrive,
		Operation:  instrumentation.OperationList,
		Write:      write,
	}
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func TestInstrumentedToolHandler(t *testing.T) {
	tests := []struct {
		name       string
		handler    mcpserver.ToolHandlerFunc
		wantErr    bool
		wantAudit  string
		wantDetail string
	}{
		{
			name: "success",
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			},
			wantAudit: "tool_executed",
		},
		{
			name: "error result",
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultError("file not found"), nil
			},
			wantAudit:  "tool_failed",
			wantDetail: "file not found",
		},
		{
			name: "handler error",
			handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("transport broke")
			},
			wantErr:    true,
			wantAudit:  "tool_failed",
			wantDetail: "transport broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, logs := newTestServerContext(t, false)
			handler := InstrumentedToolHandler(testTool("drive_list_files", false, tt.handler), sc)

			_, err := handler(context.Background(), callRequest("drive_list_files", map[string]interface{}{"account": "work"}))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Contains(t, logs.String(), tt.wantAudit)
			assert.Contains(t, logs.String(), `"tool":"drive_list_files"`)
			if tt.wantDetail != "" {
				assert.Contains(t, logs.String(), tt.wantDetail)
			}
		})
	}
}

func TestInstrumentedToolHandler_PassesResultThrough(t *testing.T) {
	sc, _ := newTestServerContext(t, false)
	want := mcp.NewToolResultText("payload")

	handler := InstrumentedToolHandler(testTool("t", false, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		assert.Equal(t, "value", request.GetArguments()["key"])
		return want, nil
	}), sc)

	got, err := handler(context.Background(), callRequest("t", map[string]interface{}{"key": "value"}))
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestRegister(t *testing.T) {
	noop := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}
	tools := []Tool{
		testTool("read_tool", false, noop),
		testTool("write_tool", true, noop),
	}

	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{name: "read write", readOnly: false, want: []string{"read_tool", "write_tool"}},
		{name: "read only", readOnly: true, want: []string{"read_tool"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newTestServerContext(t, tt.readOnly)
			s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))

			assert.Equal(t, tt.want, Register(s, sc, tools))
		})
	}
}
