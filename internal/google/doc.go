// Package google provides OAuth2 configuration and token management for the
// Google Drive and Docs APIs.
//
// Tokens are obtained through a TokenProvider. The file based provider keeps
// one JSON token per account in the user cache directory and is used with the
// stdio transport. The HTTP transport can instead use tokens forwarded by an
// authenticating proxy (see internal/oauth).
package google
