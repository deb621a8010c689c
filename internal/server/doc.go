// Package server holds the runtime state shared by the MCP tools and the
// HTTP plumbing around them.
//
// ServerContext creates Drive and Docs clients per account on first use from
// a google.TokenProvider and caches them, except for requests of a forwarded
// user whose token may change from one request to the next.
//
// HTTPServer exposes an MCP server over the streamable HTTP transport together
// with /healthz, /readyz and /healthz/detailed. With a token store configured
// it accepts Google tokens forwarded by an upstream gateway. MetricsServer
// serves Prometheus metrics on a separate port.
package server
