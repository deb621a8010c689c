package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultRedirectURL is where Google sends the browser after consent. The
// manual flow needs nothing listening there: the code is copied from the
// address bar.
const DefaultRedirectURL = "http://localhost:8080/"

// ErrMissingAuthCode is returned when no authorization code can be found in
// the user's input
var ErrMissingAuthCode = errors.New("no authorization code found")

// TokenSaver persists the token obtained by authorizing an account
type TokenSaver interface {
	SaveTokenForAccount(account string, token *oauth2.Token) error
}

// AuthCodeURL returns the consent page URL. Offline access and a forced
// consent prompt make Google return a refresh token every time.
func AuthCodeURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ParseAuthCode extracts the authorization code from input, which is either
// the bare code or the whole redirect URL
func ParseAuthCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrMissingAuthCode
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	if msg := u.Query().Get("error"); msg != "" {
		return "", fmt.Errorf("authorization denied: %s", msg)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", ErrMissingAuthCode
	}
	return code, nil
}

// Authorize exchanges the code contained in input for a token and saves it
// for account
func Authorize(ctx context.Context, conf *oauth2.Config, saver TokenSaver, account, input string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	code, err := ParseAuthCode(input)
	if err != nil {
		return nil, err
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := saver.SaveTokenForAccount(account, token); err != nil {
		return nil, err
	}
	return token, nil
}
