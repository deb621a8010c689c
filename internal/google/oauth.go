package google

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// EnvClientID and EnvClientSecret name the environment variables holding
	// the OAuth client credentials
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
)

// ErrMissingCredentials is returned when no OAuth client is configured
var ErrMissingCredentials = errors.New("google OAuth client ID and secret are required (set " + EnvClientID + " and " + EnvClientSecret + ")")

// Credentials identify the OAuth client used to authorize accounts and
// refresh their tokens.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// CredentialsFromEnv reads the client credentials from the environment
func CredentialsFromEnv() Credentials {
	return Credentials{
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
	}
}

// Validate reports whether both the ID and the secret are set
func (c Credentials) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// OAuthConfig returns the oauth2 configuration for the given redirect URL
func (c Credentials) OAuthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       DefaultOAuthScopes,
	}
}

// NewHTTPClient returns an authenticated HTTP client for token. When conf is
// nil the token is used as is and cannot be refreshed.
//
// HTTP/2 is disabled on the base transport; long running stdio sessions hit
// stream errors from the Google frontends with it enabled.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) *http.Client {
	var ts oauth2.TokenSource
	if conf != nil {
		ts = conf.TokenSource(ctx, token)
	} else {
		ts = oauth2.StaticTokenSource(token)
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &http.Transport{ForceAttemptHTTP2: false},
		},
	}
}
