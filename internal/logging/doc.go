// Package logging provides structured logging helpers built on log/slog.
//
// All attribute keys used across the server are defined here so that log
// queries stay stable. Helpers for hashing emails and masking tokens keep
// personal data and credentials out of the logs.
//
//	logger := logging.WithTool(slog.Default(), "docs_markdown_to_document")
//	logger.Info("document created",
//	    logging.DocumentID(id),
//	    logging.Instructions(len(conv.Instructions)))
//
// Logs are always written to stderr: with the stdio transport stdout carries
// the MCP protocol.
package logging
