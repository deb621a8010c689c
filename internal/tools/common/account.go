package common

import (
	"context"

	"github.com/teemow/gdrive-mcp/internal/oauth"
)

// DefaultAccount is used when a request names no account
const DefaultAccount = "default"

// GetAccountFromArgs returns the account a request acts for.
//
// Priority order:
//  1. the forwarded user's email from the request context
//  2. the "account" argument
//  3. DefaultAccount
func GetAccountFromArgs(ctx context.Context, args map[string]any) string {
	if email, ok := oauth.UserFromContext(ctx); ok {
		return email
	}
	if account, ok := args["account"].(string); ok && account != "" {
		return account
	}
	return DefaultAccount
}

// IsRemoteUser reports whether the request comes from an authenticated HTTP
// user rather than the operator of the server
func IsRemoteUser(ctx context.Context) bool {
	_, ok := oauth.UserFromContext(ctx)
	return ok
}
