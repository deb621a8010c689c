package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestParseAuthCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare code", input: " 4/0Abc-def ", want: "4/0Abc-def"},
		{name: "redirect url", input: "http://localhost:8080/?state=x&code=4%2F0Abc&scope=drive", want: "4/0Abc"},
		{name: "denied", input: "http://localhost:8080/?error=access_denied", wantErr: true},
		{name: "url without code", input: "http://localhost:8080/?state=x", wantErr: true},
		{name: "empty", input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAuthCode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthCodeURL(t *testing.T) {
	conf := Credentials{ClientID: "client", ClientSecret: "secret"}.OAuthConfig(DefaultRedirectURL)

	u, err := url.Parse(AuthCodeURL(conf, "state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, DefaultRedirectURL, q.Get("redirect_uri"))
}

func TestAuthorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	conf := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		RedirectURL:  DefaultRedirectURL,
	}
	provider := NewFileTokenProvider(t.TempDir())

	token, err := Authorize(context.Background(), conf, provider, "work", "http://localhost:8080/?code=the-code")
	require.NoError(t, err)
	assert.Equal(t, "refresh", token.RefreshToken)

	stored, err := provider.GetTokenForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "access", stored.AccessToken)

	_, err = Authorize(context.Background(), conf, provider, "../escape", "the-code")
	assert.Error(t, err)
}
