package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with at sign", "account@work", true},
		{"with slash", "work/personal", true},
		{"path traversal", "..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccountName(tt.account)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileTokenProvider_SaveAndGet(t *testing.T) {
	p := NewFileTokenProvider(t.TempDir())
	ctx := context.Background()

	assert.False(t, p.HasTokenForAccount("work"))
	_, err := p.GetTokenForAccount(ctx, "work")
	assert.ErrorIs(t, err, ErrNoToken)

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.SaveTokenForAccount("work", token))
	assert.True(t, p.HasTokenForAccount("work"))

	got, err := p.GetTokenForAccount(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.True(t, token.Expiry.Equal(got.Expiry))

	info, err := os.Stat(filepath.Join(p.Dir(), "google-work.token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, p.DeleteTokenForAccount("work"))
	assert.False(t, p.HasTokenForAccount("work"))
	assert.NoError(t, p.DeleteTokenForAccount("work"))
}

func TestFileTokenProvider_InvalidInput(t *testing.T) {
	p := NewFileTokenProvider(t.TempDir())

	assert.False(t, p.HasTokenForAccount("bad account"))
	assert.Error(t, p.SaveTokenForAccount("../escape", &oauth2.Token{}))

	require.NoError(t, os.WriteFile(filepath.Join(p.Dir(), "google-broken.token"), []byte("not json"), 0o600))
	_, err := p.GetTokenForAccount(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestNewFileTokenProvider_DefaultDir(t *testing.T) {
	p := NewFileTokenProvider("")
	assert.Equal(t, DefaultTokenDir(), p.Dir())
	assert.Equal(t, "gdrive-mcp", filepath.Base(p.Dir()))
}

func TestCredentials(t *testing.T) {
	assert.ErrorIs(t, Credentials{}.Validate(), ErrMissingCredentials)
	assert.ErrorIs(t, Credentials{ClientID: "id"}.Validate(), ErrMissingCredentials)

	c := Credentials{ClientID: "id", ClientSecret: "secret"}
	require.NoError(t, c.Validate())

	conf := c.OAuthConfig("http://127.0.0.1:9999/callback")
	assert.Equal(t, "id", conf.ClientID)
	assert.Equal(t, "http://127.0.0.1:9999/callback", conf.RedirectURL)
	assert.Equal(t, DefaultOAuthScopes, conf.Scopes)
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvClientID, "env-id")
	t.Setenv(EnvClientSecret, "env-secret")

	c := CredentialsFromEnv()
	assert.Equal(t, "env-id", c.ClientID)
	assert.Equal(t, "env-secret", c.ClientSecret)
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no token", fmt.Errorf("wrapped: %w", ErrNoToken), true},
		{"api 401", &googleapi.Error{Code: 401}, true},
		{"api 404", &googleapi.Error{Code: 404, Message: "not found"}, false},
		{"retrieve error", &oauth2.RetrieveError{ErrorCode: "invalid_client"}, true},
		{"invalid grant text", errors.New("oauth2: invalid_grant"), true},
		{"other", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthError(tt.err))
		})
	}
}

func TestAuthErrorMessage(t *testing.T) {
	msg := AuthErrorMessage("work", errors.New("invalid_grant"))
	assert.Contains(t, msg, `"work"`)
	assert.Contains(t, msg, "gdrive-mcp auth --account work")
}
