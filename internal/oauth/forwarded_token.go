package oauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"

	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/logging"
)

const (
	// UserEmailHeader carries the email of the user the gateway authenticated
	UserEmailHeader = "X-Forwarded-Email"

	// AccessTokenHeader carries the user's Google access token
	AccessTokenHeader = "X-Google-Access-Token"

	// RefreshTokenHeader optionally carries the user's Google refresh token
	RefreshTokenHeader = "X-Google-Refresh-Token"

	// TokenExpiryHeader optionally carries the access token expiry as RFC3339.
	// Without it the token is assumed to be valid for an hour.
	TokenExpiryHeader = "X-Google-Token-Expiry"

	defaultAccessTokenExpiry = time.Hour

	tokenStoreTimeout = 5 * time.Second
)

// MetricsRecorder records the outcome of every request passing the middleware
type MetricsRecorder interface {
	RecordForwardedToken(ctx context.Context, result string)
}

// MiddlewareConfig configures ForwardedTokenMiddleware
type MiddlewareConfig struct {
	// Store receives forwarded tokens keyed by user email
	Store storage.TokenStore

	// Logger defaults to slog.Default
	Logger *slog.Logger

	// Metrics is optional
	Metrics MetricsRecorder
}

// ForwardedTokenMiddleware stores Google tokens forwarded in request headers.
//
// Requests without UserEmailHeader pass through untouched. Requests with a
// user get the user attached to their context; when AccessTokenHeader is set
// as well, the token is saved in the store and attached to the context.
// Failing to store a token does not fail the request, because the token in
// the context is enough to serve it.
func ForwardedTokenMiddleware(config MiddlewareConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "forwarded_token"))

	record := func(ctx context.Context, result string) {
		if config.Metrics != nil {
			config.Metrics.RecordForwardedToken(ctx, result)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			email := strings.TrimSpace(r.Header.Get(UserEmailHeader))
			if email == "" {
				record(ctx, instrumentation.TokenResultNoUser)
				next.ServeHTTP(w, r)
				return
			}
			ctx = ContextWithUser(ctx, email)

			accessToken := r.Header.Get(AccessTokenHeader)
			if accessToken == "" {
				record(ctx, instrumentation.TokenResultNoToken)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := &oauth2.Token{
				AccessToken:  accessToken,
				RefreshToken: r.Header.Get(RefreshTokenHeader),
				TokenType:    "Bearer",
				Expiry:       parseTokenExpiry(r.Header.Get(TokenExpiryHeader), time.Now()),
			}

			storeCtx, cancel := context.WithTimeout(ctx, tokenStoreTimeout)
			err := config.Store.SaveToken(storeCtx, email, token)
			cancel()

			if err != nil {
				logger.Error("Failed to store forwarded Google token", logging.UserHash(email), logging.Err(err))
				record(ctx, instrumentation.TokenResultStoreFailed)
			} else {
				logger.Debug("Stored forwarded Google token",
					logging.UserHash(email),
					slog.Bool("has_refresh_token", token.RefreshToken != ""),
					slog.String("expires_in", time.Until(token.Expiry).Round(time.Second).String()),
				)
				record(ctx, instrumentation.TokenResultStored)
			}

			ctx = ContextWithAccessToken(ctx, accessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseTokenExpiry parses an RFC3339 expiry, falling back to an hour from now
func parseTokenExpiry(value string, now time.Time) time.Time {
	if value == "" {
		return now.Add(defaultAccessTokenExpiry)
	}
	expiry, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return now.Add(defaultAccessTokenExpiry)
	}
	return expiry
}
