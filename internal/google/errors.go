package google

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// IsAuthError reports whether err means the account needs to be authorized again
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoToken) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return true
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"invalid_grant", "unauthorized", "401"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// AuthErrorMessage builds the message shown to the user when account needs
// to be authorized
func AuthErrorMessage(account string, err error) string {
	return fmt.Sprintf("Google authentication failed for account %q: %v\n\n"+
		"Authorize the account again with:\n\n  gdrive-mcp auth --account %s", account, err, account)
}
