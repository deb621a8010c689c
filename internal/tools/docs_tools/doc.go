// Package docs_tools provides MCP tools for Google Docs.
//
// The centerpiece is docs_markdown_to_document, which turns markdown into a
// formatted document: headings, bullet and numbered lists, bold, italic and
// links. docs_convert_markdown runs the same conversion offline and shows the
// resulting text and Docs API requests without touching any document.
//
// The remaining tools read documents and make targeted edits: appending and
// replacing text, inserting headings and lists, and formatting a range.
package docs_tools
