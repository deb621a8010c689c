package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"

	"github.com/teemow/gdrive-mcp/internal/google"
)

// TokenProvider implements google.TokenProvider on top of the forwarded
// token store.
//
// Requests of an authenticated user only ever get that user's token: the one
// attached to the request, else the one stored under the user's email. The
// store is never read by the account argument, and the fallback provider only
// serves requests without a user.
type TokenProvider struct {
	store    storage.TokenStore
	fallback google.TokenProvider
}

// NewTokenProvider creates a provider reading from store. fallback may be nil.
func NewTokenProvider(store storage.TokenStore, fallback google.TokenProvider) *TokenProvider {
	return &TokenProvider{
		store:    store,
		fallback: fallback,
	}
}

// GetTokenForAccount returns the Google token to use for account
func (p *TokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	if accessToken, ok := AccessTokenFromContext(ctx); ok {
		return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
	}

	if email, ok := UserFromContext(ctx); ok {
		if token, err := p.store.GetToken(ctx, email); err == nil && token != nil {
			return token, nil
		}
		return nil, fmt.Errorf("%w for user %s", google.ErrNoToken, email)
	}

	if p.fallback != nil {
		return p.fallback.GetTokenForAccount(ctx, account)
	}
	return nil, fmt.Errorf("%w for account %s", google.ErrNoToken, account)
}

// ErrNoTokenSaver is returned when tokens are saved without a fallback
// provider that can persist them
var ErrNoTokenSaver = errors.New("token provider cannot save account tokens")

// HasTokenForAccount reports whether the fallback provider has a token for
// account. Forwarded tokens belong to users, not accounts.
func (p *TokenProvider) HasTokenForAccount(account string) bool {
	return p.fallback != nil && p.fallback.HasTokenForAccount(account)
}

// SaveTokenForAccount stores token with the fallback provider. The forwarded
// store only takes tokens from the middleware, keyed by the user's email.
func (p *TokenProvider) SaveTokenForAccount(account string, token *oauth2.Token) error {
	if saver, ok := p.fallback.(google.TokenSaver); ok {
		return saver.SaveTokenForAccount(account, token)
	}
	return ErrNoTokenSaver
}
