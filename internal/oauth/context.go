package oauth

import "context"

type contextKey int

const (
	userKey contextKey = iota
	accessTokenKey
)

// ContextWithUser returns a context carrying the authenticated user's email
func ContextWithUser(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userKey, email)
}

// UserFromContext returns the authenticated user's email, if any
func UserFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userKey).(string)
	return email, ok && email != ""
}

// ContextWithAccessToken returns a context carrying a forwarded Google access token
func ContextWithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

// AccessTokenFromContext returns the forwarded access token of the request, if any
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	return token, ok && token != ""
}
