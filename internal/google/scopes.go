package google

import (
	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
)

// SpreadsheetsScope allows exporting Google Sheets as CSV when reading files
const SpreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// DefaultOAuthScopes are the scopes requested when authorizing an account.
//
// Drive is requested with full access because the server creates, moves,
// copies and deletes files that it did not create itself.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	drive.DriveScope,
	docs.DocumentsScope,
	SpreadsheetsScope,
}
