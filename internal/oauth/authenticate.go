package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/giantswarm/mcp-oauth/providers"
	googleprovider "github.com/giantswarm/mcp-oauth/providers/google"

	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/logging"
)

// TokenValidator resolves a Google access token to its user. The mcp-oauth
// Google provider implements it against the userinfo endpoint.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*providers.UserInfo, error)
}

// AuthConfig configures RequireUserMiddleware
type AuthConfig struct {
	// Validator checks bearer tokens. Without it only requests already
	// carrying a forwarded user are accepted.
	Validator TokenValidator

	// Realm is reported in the WWW-Authenticate header
	Realm string

	// Logger defaults to slog.Default
	Logger *slog.Logger

	// Metrics is optional
	Metrics MetricsRecorder
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RequireUserMiddleware rejects requests that do not belong to an
// authenticated user.
//
// A user attached by ForwardedTokenMiddleware is accepted as is. Otherwise
// the request must carry a Google access token as a bearer token, which is
// validated and attached to the context together with the user's email.
func RequireUserMiddleware(config AuthConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "authentication"))

	record := func(ctx context.Context, result string) {
		if config.Metrics != nil {
			config.Metrics.RecordForwardedToken(ctx, result)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if _, ok := UserFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			accessToken, ok := bearerToken(r)
			if !ok {
				record(ctx, instrumentation.TokenResultRejected)
				writeUnauthorized(w, config.Realm, "missing_token", "Missing bearer token")
				return
			}
			if config.Validator == nil {
				record(ctx, instrumentation.TokenResultRejected)
				writeUnauthorized(w, config.Realm, "invalid_token", "Bearer tokens are not accepted by this server")
				return
			}

			userInfo, err := config.Validator.ValidateToken(ctx, accessToken)
			if err != nil || userInfo == nil || userInfo.Email == "" {
				logger.Debug("Rejected bearer token",
					slog.String("token", logging.SanitizeToken(accessToken)),
					logging.Err(err),
				)
				record(ctx, instrumentation.TokenResultRejected)
				writeUnauthorized(w, config.Realm, "invalid_token", "Google access token is invalid or expired")
				return
			}

			record(ctx, instrumentation.TokenResultValidated)
			ctx = ContextWithUser(ctx, userInfo.Email)
			ctx = ContextWithAccessToken(ctx, accessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer" header
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeUnauthorized writes an OAuth error response with status 401
func writeUnauthorized(w http.ResponseWriter, realm, code, description string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm=%q, error=%q, error_description=%q`, realm, code, description))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// NewGoogleTokenValidator validates bearer tokens with Google's userinfo
// endpoint using the OAuth client in creds
func NewGoogleTokenValidator(creds google.Credentials) (TokenValidator, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	provider, err := googleprovider.NewProvider(&googleprovider.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       google.DefaultOAuthScopes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google token validator: %w", err)
	}
	return provider, nil
}
