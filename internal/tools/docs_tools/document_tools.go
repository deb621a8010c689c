package docs_tools

import (
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/docs"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

// Output formats of docs_get_document
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

type getDocumentParams struct {
	DocumentID string `json:"document_id"`
	Format     string `json:"format"`
}

func (p getDocumentParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DocumentID, validation.Required, common.GoogleID),
		validation.Field(&p.Format, validation.In(FormatMarkdown, FormatText, FormatJSON).Error("must be 'markdown', 'text' or 'json'")),
	)
}

type createDocumentParams struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (p createDocumentParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 255)),
	)
}

func documentTools(sc *server.ServerContext) []common.Tool {
	return []common.Tool{
		{
			Definition: mcp.NewTool("docs_get_document",
				mcp.WithDescription("Get the content of a Google Doc as markdown, plain text or the raw JSON structure"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("document_id",
					mcp.Required(),
					mcp.Description("The ID of the Google Doc"),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'markdown' (default), 'text', or 'json'"),
				),
			),
			Handler:   handleGetDocument(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationGet,
		},
		{
			Definition: mcp.NewTool("docs_create_document",
				mcp.WithDescription("Create a new Google Doc with plain text content"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("title",
					mcp.Required(),
					mcp.Description("Title of the new document"),
				),
				mcp.WithString("content",
					mcp.Description("Initial text of the document"),
				),
			),
			Handler:   handleCreateDocument(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationCreate,
			Write:     true,
		},
	}
}

func handleGetDocument(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := getDocumentParams{
			DocumentID: common.StringArg(args, "document_id"),
			Format:     common.StringArg(args, "format"),
		}
		if params.Format == "" {
			params.Format = FormatMarkdown
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "get document", err), nil
		}

		switch params.Format {
		case FormatText:
			content, err := client.GetDocumentAsPlainText(ctx, params.DocumentID)
			if err != nil {
				return common.ErrorResult(account, "get document", err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Document content (plain text, %d bytes):\n%s", len(content), content)), nil

		case FormatJSON:
			doc, err := client.GetDocument(ctx, params.DocumentID)
			if err != nil {
				return common.ErrorResult(account, "get document", err), nil
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize document: %v", err)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Document content (JSON, %d bytes):\n%s", len(data), data)), nil

		default:
			content, err := client.GetDocumentAsMarkdown(ctx, params.DocumentID)
			if err != nil {
				return common.ErrorResult(account, "get document", err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Document content (Markdown, %d bytes):\n%s", len(content), content)), nil
		}
	}
}

func handleCreateDocument(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := createDocumentParams{
			Title:   common.StringArg(args, "title"),
			Content: common.StringArg(args, "content"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "create document", err), nil
		}

		documentID, err := client.CreateDocument(ctx, params.Title, params.Content)
		if err != nil {
			return common.ErrorResult(account, "create document", err), nil
		}

		return common.JSONResult("Document created successfully:", map[string]string{
			"documentId": documentID,
			"title":      params.Title,
			"url":        docs.DocumentURL(documentID),
		})
	}
}
