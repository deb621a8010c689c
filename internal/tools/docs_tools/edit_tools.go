package docs_tools

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/docs"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/batch"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

// hexColor accepts what docs.ParseHexColor accepts
var hexColor = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := docs.ParseHexColor(s); err != nil {
		return errors.New("must be a hex color like #FF0000")
	}
	return nil
})

type textParams struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

func (p textParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DocumentID, validation.Required, common.GoogleID),
		validation.Field(&p.Text, validation.Required),
	)
}

type replaceParams struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
}

func (p replaceParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DocumentID, validation.Required, common.GoogleID),
	)
}

type headingParams struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	Level      int    `json:"level"`
	Index      int    `json:"index"`
	AtEnd      bool   `json:"at_end"`
}

func (p headingParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DocumentID, validation.Required, common.GoogleID),
		validation.Field(&p.Text, validation.Required),
		validation.Field(&p.Level, validation.Required, validation.Min(1), validation.Max(docs.MaxHeadingLevel)),
		validation.Field(&p.Index, validation.Min(1)),
	)
}

type listParams struct {
	DocumentID string   `json:"document_id"`
	Items      []string `json:"items"`
	Ordered    bool     `json:"ordered"`
	Index      int      `json:"index"`
	AtEnd      bool     `json:"at_end"`
}

func (p listParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DocumentID, validation.Required, common.GoogleID),
		validation.Field(&p.Items, validation.Required),
		validation.Field(&p.Index, validation.Min(1)),
	)
}

type formatParams struct {
	DocumentID string   `json:"document_id"`
	StartIndex int      `json:"start_index"`
	EndIndex   int      `json:"end_index"`
	Bold       *bool    `json:"bold"`
	Italic     *bool    `json:"italic"`
	Underline  *bool    `json:"underline"`
	FontSize   *float64 `json:"font_size"`
	Color      string   `json:"color"`
}

func (p formatParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DocumentID, validation.Required, common.GoogleID),
		validation.Field(&p.StartIndex, validation.Required, validation.Min(1)),
		validation.Field(&p.EndIndex, validation.Required, validation.Min(p.StartIndex+1).Error("must be greater than start_index")),
		validation.Field(&p.FontSize, validation.Min(1.0), validation.Max(400.0)),
		validation.Field(&p.Color, hexColor),
	)
}

func (p formatParams) textFormat() docs.TextFormat {
	return docs.TextFormat{
		Bold:      p.Bold,
		Italic:    p.Italic,
		Underline: p.Underline,
		FontSize:  p.FontSize,
		Color:     p.Color,
	}
}

// position turns the index and at_end arguments into an insert position
func position(index int, atEnd bool) docs.Position {
	if atEnd {
		return docs.Position{AtEnd: true}
	}
	return docs.Position{Index: int64(index)}
}

func editTools(sc *server.ServerContext) []common.Tool {
	return []common.Tool{
		{
			Definition: mcp.NewTool("docs_append_text",
				mcp.WithDescription("Append text to the end of a Google Doc"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("document_id",
					mcp.Required(),
					mcp.Description("The ID of the Google Doc"),
				),
				mcp.WithString("text",
					mcp.Required(),
					mcp.Description("Text to append"),
				),
			),
			Handler:   handleAppendText(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationUpdate,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("docs_replace_content",
				mcp.WithDescription("Replace the whole body of a Google Doc with new text"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("document_id",
					mcp.Required(),
					mcp.Description("The ID of the Google Doc"),
				),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("New text of the document. An empty string clears the document."),
				),
			),
			Handler:   handleReplaceContent(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationUpdate,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("docs_insert_heading",
				mcp.WithDescription("Insert a heading (H1-H6) into a Google Doc at an index or at the end"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("document_id",
					mcp.Required(),
					mcp.Description("The ID of the Google Doc"),
				),
				mcp.WithString("text",
					mcp.Required(),
					mcp.Description("The heading text"),
				),
				mcp.WithNumber("level",
					mcp.Required(),
					mcp.Description("Heading level (1-6)"),
				),
				mcp.WithNumber("index",
					mcp.Description("Position to insert at (default: 1, the start of the document)"),
				),
				mcp.WithBoolean("at_end",
					mcp.Description("Insert at the end of the document instead of at index"),
				),
			),
			Handler:   handleInsertHeading(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationUpdate,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("docs_insert_list",
				mcp.WithDescription("Insert a bullet or numbered list into a Google Doc"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("document_id",
					mcp.Required(),
					mcp.Description("The ID of the Google Doc"),
				),
				mcp.WithArray("items",
					mcp.Required(),
					mcp.Description("List items, one paragraph each"),
					mcp.WithStringItems(),
				),
				mcp.WithBoolean("ordered",
					mcp.Description("Create a numbered list instead of bullets (default: false)"),
				),
				mcp.WithNumber("index",
					mcp.Description("Position to insert at (default: 1, the start of the document)"),
				),
				mcp.WithBoolean("at_end",
					mcp.Description("Insert at the end of the document instead of at index"),
				),
			),
			Handler:   handleInsertList(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationUpdate,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("docs_format_text",
				mcp.WithDescription("Apply bold, italic, underline, font size or color to a range of a Google Doc. Unset attributes are left unchanged."),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("document_id",
					mcp.Required(),
					mcp.Description("The ID of the Google Doc"),
				),
				mcp.WithNumber("start_index",
					mcp.Required(),
					mcp.Description("First index of the range (1-based)"),
				),
				mcp.WithNumber("end_index",
					mcp.Required(),
					mcp.Description("Index after the last character of the range"),
				),
				mcp.WithBoolean("bold", mcp.Description("Set or clear bold")),
				mcp.WithBoolean("italic", mcp.Description("Set or clear italic")),
				mcp.WithBoolean("underline", mcp.Description("Set or clear underline")),
				mcp.WithNumber("font_size", mcp.Description("Font size in points (e.g. 12, 14, 18)")),
				mcp.WithString("color", mcp.Description("Text color as hex (e.g. '#FF0000')")),
			),
			Handler:   handleFormatText(sc),
			Service:   instrumentation.ServiceDocs,
			Operation: instrumentation.OperationFormat,
			Write:     true,
		},
	}
}

func handleAppendText(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := textParams{
			DocumentID: common.StringArg(args, "document_id"),
			Text:       common.StringArg(args, "text"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "append text", err), nil
		}
		if err := client.AppendText(ctx, params.DocumentID, params.Text); err != nil {
			return common.ErrorResult(account, "append text", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Appended %d characters to %s", docs.TextLength(params.Text), docs.DocumentURL(params.DocumentID))), nil
	}
}

func handleReplaceContent(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := replaceParams{
			DocumentID: common.StringArg(args, "document_id"),
			Content:    common.StringArg(args, "content"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "replace content", err), nil
		}
		if err := client.ReplaceContent(ctx, params.DocumentID, params.Content); err != nil {
			return common.ErrorResult(account, "replace content", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Replaced the content of %s", docs.DocumentURL(params.DocumentID))), nil
	}
}

func handleInsertHeading(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := headingParams{
			DocumentID: common.StringArg(args, "document_id"),
			Text:       common.StringArg(args, "text"),
			Level:      common.IntArg(args, "level", 0),
			Index:      common.IntArg(args, "index", 1),
			AtEnd:      common.BoolArg(args, "at_end", false),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "insert heading", err), nil
		}
		r, err := client.InsertHeading(ctx, params.DocumentID, params.Text, params.Level, position(params.Index, params.AtEnd))
		if err != nil {
			return common.ErrorResult(account, "insert heading", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Inserted %s heading at [%d, %d)", docs.HeadingStyle(params.Level), r.Start, r.End)), nil
	}
}

func handleInsertList(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		items, err := batch.ParseStringOrArray(args["items"], "items")
		if err != nil {
			return common.InvalidArguments(err), nil
		}
		params := listParams{
			DocumentID: common.StringArg(args, "document_id"),
			Items:      items,
			Ordered:    common.BoolArg(args, "ordered", false),
			Index:      common.IntArg(args, "index", 1),
			AtEnd:      common.BoolArg(args, "at_end", false),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "insert list", err), nil
		}
		r, err := client.InsertList(ctx, params.DocumentID, params.Items, params.Ordered, position(params.Index, params.AtEnd))
		if err != nil {
			return common.ErrorResult(account, "insert list", err), nil
		}

		kind := "bullet"
		if params.Ordered {
			kind = "numbered"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Inserted %s list with %d items at [%d, %d)", kind, len(params.Items), r.Start, r.End)), nil
	}
}

func handleFormatText(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := formatParams{
			DocumentID: common.StringArg(args, "document_id"),
			StartIndex: common.IntArg(args, "start_index", 0),
			EndIndex:   common.IntArg(args, "end_index", 0),
			Bold:       common.OptionalBool(args, "bold"),
			Italic:     common.OptionalBool(args, "italic"),
			Underline:  common.OptionalBool(args, "underline"),
			FontSize:   common.OptionalFloat(args, "font_size"),
			Color:      common.StringArg(args, "color"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}
		format := params.textFormat()
		if format.IsEmpty() {
			return mcp.NewToolResultError("Invalid arguments: at least one of bold, italic, underline, font_size or color is required"), nil
		}

		client, account, err := docsClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "format text", err), nil
		}
		r := docs.Range{Start: int64(params.StartIndex), End: int64(params.EndIndex)}
		if err := client.FormatText(ctx, params.DocumentID, r, format); err != nil {
			return common.ErrorResult(account, "format text", err), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Formatted [%d, %d) of %s", r.Start, r.End, docs.DocumentURL(params.DocumentID))), nil
	}
}
