// Package common provides shared utilities for MCP tool implementations:
// account resolution, argument parsing and validation, result helpers and
// the instrumented registration every tool goes through.
package common
