package google_tools

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

const serviceOAuth = "oauth"

var errNoOAuthClient = errors.New("no Google OAuth client configured; set " + google.EnvClientID + " and " + google.EnvClientSecret)

type saveCodeParams struct {
	Account  string `json:"account"`
	AuthCode string `json:"auth_code"`
}

func (p saveCodeParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.AuthCode, validation.Required),
	)
}

// Tools returns the account authorization tools
func Tools(sc *server.ServerContext) []common.Tool {
	return []common.Tool{
		{
			Definition: mcp.NewTool("google_get_auth_url",
				mcp.WithDescription("Get the OAuth URL to authorize Google Drive and Docs access for an account"),
				mcp.WithString("account",
					mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
				),
			),
			Handler:   handleGetAuthURL(sc),
			Service:   serviceOAuth,
			Operation: "auth_url",
		},
		{
			Definition: mcp.NewTool("google_save_auth_code",
				mcp.WithDescription("Complete the authorization of an account with the code, or the whole redirect URL, from the consent page"),
				mcp.WithString("account",
					mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
				),
				mcp.WithString("auth_code",
					mcp.Required(),
					mcp.Description("The authorization code or the localhost URL the browser was redirected to"),
				),
			),
			Handler:   handleSaveAuthCode(sc),
			Service:   serviceOAuth,
			Operation: "save_code",
		},
	}
}

// RegisterGoogleTools registers the authorization tools. They are needed to
// recover from expired tokens and are available on read-only servers too.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) []string {
	return common.Register(s, sc, Tools(sc))
}

func handleGetAuthURL(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := common.GetAccountFromArgs(ctx, request.GetArguments())

		conf := sc.OAuthConfig()
		if conf == nil {
			return mcp.NewToolResultError(errNoOAuthClient.Error()), nil
		}

		result := fmt.Sprintf(`To authorize Google Drive and Docs access for account %q:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account and grant access
3. Your browser is redirected to %s, which may fail to load
4. Copy the whole URL from the address bar

5. Call google_save_auth_code with that URL and the account name`, account, google.AuthCodeURL(conf, account), conf.RedirectURL)

		return mcp.NewToolResultText(result), nil
	}
}

func handleSaveAuthCode(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := saveCodeParams{
			Account:  common.GetAccountFromArgs(ctx, args),
			AuthCode: common.StringArg(args, "auth_code"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}
		if common.IsRemoteUser(ctx) {
			return mcp.NewToolResultError("Account tokens can only be saved by local clients. Remote users authorize with their own Google token."), nil
		}

		conf := sc.OAuthConfig()
		if conf == nil {
			return mcp.NewToolResultError(errNoOAuthClient.Error()), nil
		}
		saver, ok := sc.TokenProvider().(google.TokenSaver)
		if !ok {
			return mcp.NewToolResultError("The configured token provider cannot store tokens"), nil
		}

		if _, err := google.Authorize(ctx, conf, saver, params.Account, params.AuthCode); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to authorize account %s: %v", params.Account, err)), nil
		}
		sc.ForgetAccount(params.Account)

		return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account %q. The Drive and Docs tools can use it now.", params.Account)), nil
	}
}
