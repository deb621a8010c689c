package cmd

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "drive_list_files", want: "Google Drive Tools"},
		{name: "docs_markdown_to_document", want: "Google Docs Tools"},
		{name: "google_get_auth_url", want: "Authorization Tools"},
		{name: "sheets_get_values", want: "Other"},
		{name: "plain", want: "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getCategoryFromToolName(tt.name))
		})
	}
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("docs_append_text",
		mcp.WithDescription("Append text"),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("ID of the document")),
		mcp.WithString("account", mcp.Description("Account name")),
	)

	md := generateToolMarkdown(tool)
	assert.Contains(t, md, "### docs_append_text\n\nAppend text\n\n")
	assert.Contains(t, md, "- `account` (string, optional): Account name\n- `document_id` (string, required): ID of the document\n")
}

func TestGenerateDocs(t *testing.T) {
	md, err := generateDocs()
	require.NoError(t, err)

	assert.Contains(t, md, "# MCP Tools Reference")
	assert.Contains(t, md, "- [Authorization Tools](#authorization-tools)")
	assert.Contains(t, md, "### docs_markdown_to_document")
	assert.Contains(t, md, "### drive_upload_file")
	assert.NotContains(t, md, "## Other")
}
