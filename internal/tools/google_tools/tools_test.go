package google_tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/oauth"
	"github.com/teemow/gdrive-mcp/internal/server"
)

func newTestServerContext(t *testing.T, conf *oauth2.Config) (*server.ServerContext, *google.FileTokenProvider) {
	t.Helper()
	provider := google.NewFileTokenProvider(t.TempDir())
	sc, err := server.NewServerContext(context.Background(), server.Options{
		TokenProvider: provider,
		OAuthConfig:   conf,
		ReadOnly:      true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, provider
}

func call(t *testing.T, sc *server.ServerContext, name string, args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	return callWithContext(t, context.Background(), sc, name, args)
}

func callWithContext(t *testing.T, ctx context.Context, sc *server.ServerContext, name string, args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	for _, tool := range Tools(sc) {
		if tool.Definition.Name == name {
			result, err := tool.Handler(ctx, mcp.CallToolRequest{
				Params: mcp.CallToolParams{Name: name, Arguments: args},
			})
			require.NoError(t, err)
			text, ok := mcp.AsTextContent(result.Content[0])
			require.True(t, ok)
			return result, text.Text
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil, ""
}

func TestGetAuthURL(t *testing.T) {
	conf := google.Credentials{ClientID: "client", ClientSecret: "secret"}.OAuthConfig(google.DefaultRedirectURL)
	sc, _ := newTestServerContext(t, conf)

	result, text := call(t, sc, "google_get_auth_url", map[string]interface{}{"account": "work"})
	assert.False(t, result.IsError)
	assert.Contains(t, text, "https://accounts.google.com/")
	assert.Contains(t, text, `account "work"`)
}

func TestAuthTools_WithoutOAuthClient(t *testing.T) {
	sc, _ := newTestServerContext(t, nil)

	result, text := call(t, sc, "google_get_auth_url", map[string]interface{}{})
	assert.True(t, result.IsError)
	assert.Contains(t, text, google.EnvClientID)

	result, _ = call(t, sc, "google_save_auth_code", map[string]interface{}{"auth_code": "code"})
	assert.True(t, result.IsError)
}

func TestSaveAuthCode(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)

	conf := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: tokenServer.URL + "/auth", TokenURL: tokenServer.URL + "/token"},
		RedirectURL:  google.DefaultRedirectURL,
	}
	sc, provider := newTestServerContext(t, conf)

	result, text := call(t, sc, "google_save_auth_code", map[string]interface{}{
		"account":   "work",
		"auth_code": "http://localhost:8080/?code=abc",
	})
	require.False(t, result.IsError, text)
	assert.True(t, provider.HasTokenForAccount("work"))

	result, _ = call(t, sc, "google_save_auth_code", map[string]interface{}{"account": "work"})
	assert.True(t, result.IsError)
}

func TestSaveAuthCode_RemoteUser(t *testing.T) {
	conf := google.Credentials{ClientID: "client", ClientSecret: "secret"}.OAuthConfig(google.DefaultRedirectURL)
	sc, provider := newTestServerContext(t, conf)

	ctx := oauth.ContextWithUser(context.Background(), "mallory@example.com")
	result, text := callWithContext(t, ctx, sc, "google_save_auth_code", map[string]interface{}{
		"account":   "default",
		"auth_code": "attacker-code",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "only be saved by local clients")
	assert.False(t, provider.HasTokenForAccount("default"))
}
