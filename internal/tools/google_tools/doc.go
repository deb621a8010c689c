// Package google_tools provides MCP tools for authorizing Google accounts
// from within an MCP client.
//
// The flow:
//  1. google_get_auth_url returns the consent page URL for an account
//  2. the user opens it, signs in and grants access
//  3. the browser is redirected to a localhost URL carrying the code
//  4. google_save_auth_code takes that URL (or the bare code), exchanges it
//     for a token and stores it for the account
//
// The tokens are refreshed automatically afterwards.
package google_tools
