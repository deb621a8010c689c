// Package oauth authenticates the users of the streamable HTTP transport.
//
// When gdrive-mcp runs behind an aggregator that has already authenticated
// the user with Google, the aggregator forwards the user's email and Google
// access token as request headers. ForwardedTokenMiddleware stores the token
// in an mcp-oauth TokenStore keyed by email and marks the request context
// with the user. Clients talking to the server directly send their Google
// access token as a bearer token instead, which RequireUserMiddleware
// validates with Google.
//
// TokenProvider hands each user's own token to the Drive and Docs clients.
package oauth
