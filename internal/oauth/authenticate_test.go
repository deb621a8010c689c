package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giantswarm/mcp-oauth/providers"
	"github.com/giantswarm/mcp-oauth/providers/mock"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
)

func newMockValidator() *mock.Provider {
	validator := mock.NewProvider()
	validator.ValidateTokenFunc = func(_ context.Context, accessToken string) (*providers.UserInfo, error) {
		switch accessToken {
		case "ya29.jane":
			return &providers.UserInfo{Email: "jane@example.com", EmailVerified: true}, nil
		case "ya29.anonymous":
			return &providers.UserInfo{ID: "123"}, nil
		default:
			return nil, errors.New("userinfo request failed with status 401")
		}
	}
	return validator
}

func TestRequireUserMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		validator  TokenValidator
		authHeader string
		wantStatus int
		wantUser   string
		wantToken  string
		wantResult []string
	}{
		{
			name:       "forwarded user passes",
			ctx:        ContextWithUser(context.Background(), "gateway@example.com"),
			validator:  newMockValidator(),
			wantStatus: http.StatusOK,
			wantUser:   "gateway@example.com",
		},
		{
			name:       "missing token",
			ctx:        context.Background(),
			validator:  newMockValidator(),
			wantStatus: http.StatusUnauthorized,
			wantResult: []string{instrumentation.TokenResultRejected},
		},
		{
			name:       "not a bearer token",
			ctx:        context.Background(),
			validator:  newMockValidator(),
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantResult: []string{instrumentation.TokenResultRejected},
		},
		{
			name:       "invalid token",
			ctx:        context.Background(),
			validator:  newMockValidator(),
			authHeader: "Bearer ya29.expired",
			wantStatus: http.StatusUnauthorized,
			wantResult: []string{instrumentation.TokenResultRejected},
		},
		{
			name:       "token without email",
			ctx:        context.Background(),
			validator:  newMockValidator(),
			authHeader: "Bearer ya29.anonymous",
			wantStatus: http.StatusUnauthorized,
			wantResult: []string{instrumentation.TokenResultRejected},
		},
		{
			name:       "no validator configured",
			ctx:        context.Background(),
			authHeader: "Bearer ya29.jane",
			wantStatus: http.StatusUnauthorized,
			wantResult: []string{instrumentation.TokenResultRejected},
		},
		{
			name:       "valid token",
			ctx:        context.Background(),
			validator:  newMockValidator(),
			authHeader: "bearer ya29.jane",
			wantStatus: http.StatusOK,
			wantUser:   "jane@example.com",
			wantToken:  "ya29.jane",
			wantResult: []string{instrumentation.TokenResultValidated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &recordedMetrics{}

			var gotUser, gotToken string
			handler := RequireUserMiddleware(AuthConfig{
				Validator: tt.validator,
				Realm:     "gdrive-mcp",
				Logger:    discardLogger(),
				Metrics:   metrics,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserFromContext(r.Context())
				gotToken, _ = AccessTokenFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/mcp", nil).WithContext(tt.ctx)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			assert.Equal(t, tt.wantToken, gotToken)
			assert.Equal(t, tt.wantResult, metrics.results)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `Bearer realm="gdrive-mcp"`)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireUserMiddleware_WithForwardedTokens(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	handler := ForwardedTokenMiddleware(MiddlewareConfig{Store: store, Logger: discardLogger()})(
		RequireUserMiddleware(AuthConfig{Logger: discardLogger()})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}),
		),
	)

	anonymous := httptest.NewRecorder()
	handler.ServeHTTP(anonymous, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set(UserEmailHeader, "jane@example.com")
	req.Header.Set(AccessTokenHeader, "ya29.token")
	forwarded := httptest.NewRecorder()
	handler.ServeHTTP(forwarded, req)
	assert.Equal(t, http.StatusNoContent, forwarded.Code)
}

func TestNewGoogleTokenValidator(t *testing.T) {
	_, err := NewGoogleTokenValidator(google.Credentials{})
	assert.Error(t, err)

	validator, err := NewGoogleTokenValidator(google.Credentials{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)
	assert.NotNil(t, validator)
}
