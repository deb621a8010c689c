package docs_tools

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	googledocs "google.golang.org/api/docs/v1"

	"github.com/teemow/gdrive-mcp/internal/docs"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/logging"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

// Conversion kinds recorded in metrics
const (
	conversionPreview  = "preview"
	conversionDocument = "document"
)

type markdownParams struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	FolderID string `json:"folder_id"`
}

func (p markdownParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required.Error("is required, as an argument or in the front matter"), validation.Length(1, 255)),
		validation.Field(&p.FolderID, common.GoogleID),
	)
}

// conversionResult is what docs_convert_markdown returns
type conversionResult struct {
	Text         string                `json:"text"`
	Length       int64                 `json:"length"`
	Instructions []docs.Instruction    `json:"instructions"`
	Requests     []*googledocs.Request `json:"requests"`
}

func markdownTools(sc *server.ServerContext) []common.Tool {
	return []common.Tool{
		{
			Definition: mcp.NewTool("docs_convert_markdown",
				mcp.WithDescription("Preview the conversion of markdown: the plain text and the Docs API requests that would format it. Nothing is sent to Google."),
				mcp.WithString("markdown",
					mcp.Required(),
					mcp.Description("Markdown content to convert"),
				),
			),
			Handler:   handleConvertMarkdown(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationConvert,
		},
		{
			Definition: mcp.NewTool("docs_markdown_to_document",
				mcp.WithDescription("Create a formatted Google Doc from markdown with headings, bold, italic, bullet and numbered lists, and links. A front matter block may set title and folder_id."),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("title",
					mcp.Description("Title of the new document. Overrides the front matter title."),
				),
				mcp.WithString("markdown",
					mcp.Required(),
					mcp.Description("Markdown content to convert"),
				),
				mcp.WithString("folder_id",
					mcp.Description("Folder to create the document in"),
				),
			),
			Handler:   handleMarkdownToDocument(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationMarkdown,
			Write:     true,
		},
	}
}

func handleConvertMarkdown(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		markdown, ok := args["markdown"].(string)
		if !ok {
			return mcp.NewToolResultError("Invalid arguments: markdown: is required."), nil
		}

		_, body, err := docs.SplitFrontMatter(markdown)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		conv := docs.ConvertMarkdown(body)
		sc.Metrics().RecordConversion(ctx, conversionPreview, len(conv.Instructions))

		return common.JSONResult(fmt.Sprintf("Converted to %d characters and %d instructions", conv.Length(), len(conv.Instructions)), conversionResult{
			Text:         conv.Text,
			Length:       conv.Length(),
			Instructions: conv.Instructions,
			Requests:     conv.Requests(),
		})
	}
}

func handleMarkdownToDocument(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		meta, body, err := docs.SplitFrontMatter(common.StringArg(args, "markdown"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params := markdownParams{
			Title:    common.StringArg(args, "title"),
			Markdown: body,
			FolderID: common.StringArg(args, "folder_id"),
		}
		if params.Title == "" {
			params.Title = meta.Title
		}
		if params.FolderID == "" {
			params.FolderID = meta.FolderID
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "create document from markdown", err), nil
		}

		result, err := client.CreateFromMarkdown(ctx, params.Title, params.Markdown, params.FolderID)
		if err != nil {
			if result != nil {
				// the document exists but is incomplete
				return common.ErrorResult(account, fmt.Sprintf("finish document %s", result.URL), err), nil
			}
			return common.ErrorResult(account, "create document from markdown", err), nil
		}

		sc.Metrics().RecordConversion(ctx, conversionDocument, result.Instructions)
		sc.Logger().Info("Created document from markdown",
			logging.DocumentID(result.DocumentID),
			logging.Instructions(result.Instructions),
		)

		return common.JSONResult("Document created from markdown:", result)
	}
}
