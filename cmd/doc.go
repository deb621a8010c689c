// Package cmd implements the command-line interface for gdrive-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server with the Drive and Docs tools
//   - auth: Authorize a Google account and store its token
//   - convert: Convert markdown offline and print the text and styling instructions
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Settings are read from flags, a gdrive-mcp.yaml config file and GDRIVE_MCP_*
// environment variables, in that order of precedence.
package cmd
