package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/gdrive-mcp/internal/google"
)

const authTimeout = 5 * time.Minute

func newAuthCmd() *cobra.Command {
	var (
		account      string
		manual       bool
		listenAddr   string
		tokenDir     string
		clientID     string
		clientSecret string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account",
		Long: `Authorize gdrive-mcp to use Google Drive and Google Docs on behalf of an account.

By default a local web server receives the redirect from the consent page. With
--manual the consent page redirects to http://localhost:8080/ instead and you paste
the URL from the browser address bar.

The token is stored in the token directory under the account name, so several
Google accounts can be used side by side with the account tool argument.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := resolveCredentials(clientID, clientSecret)
			if err := creds.Validate(); err != nil {
				return err
			}
			store := google.NewFileTokenProvider(tokenDir)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, authTimeout)
			defer cancelTimeout()

			var err error
			if manual {
				err = runManualAuth(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), creds.OAuthConfig(google.DefaultRedirectURL), store, account)
			} else {
				err = runLoopbackAuth(ctx, cmd.OutOrStdout(), creds, store, account, listenAddr)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token for account %q saved in %s\n", account, store.Dir())
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account name the token is stored under")
	cmd.Flags().BoolVar(&manual, "manual", false, "Paste the redirect URL instead of running a local callback server")
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "127.0.0.1:0", "Address of the local callback server")
	cmd.Flags().StringVar(&tokenDir, "token-dir", "", "Directory holding the account token files (default: <user cache dir>/gdrive-mcp)")
	cmd.Flags().StringVar(&clientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")

	return cmd
}

// runManualAuth prints the consent URL and reads the code or redirect URL
// from in
func runManualAuth(ctx context.Context, in io.Reader, out io.Writer, conf *oauth2.Config, saver google.TokenSaver, account string) error {
	fmt.Fprintf(out, "Open this URL in your browser to authorize account %q:\n\n%s\n\n", account, google.AuthCodeURL(conf, uuid.NewString()))
	fmt.Fprintf(out, "After granting access the browser is redirected to %s, which may fail to load.\n", conf.RedirectURL)
	fmt.Fprint(out, "Paste the URL from the address bar (or just the code): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	_, err = google.Authorize(ctx, conf, saver, account, line)
	return err
}

// runLoopbackAuth serves the redirect target on a local port and completes
// the flow when the browser comes back with a code
func runLoopbackAuth(ctx context.Context, out io.Writer, creds google.Credentials, saver google.TokenSaver, account, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	conf := creds.OAuthConfig(fmt.Sprintf("http://%s/", listener.Addr().String()))
	state := uuid.NewString()
	result := make(chan error, 1)

	srv := &http.Server{
		Handler:           callbackHandler(ctx, conf, saver, account, state, result),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(listener) }()
	defer func() { _ = srv.Close() }()

	fmt.Fprintf(out, "Open this URL in your browser to authorize account %q:\n\n%s\n\n", account, google.AuthCodeURL(conf, state))
	fmt.Fprintln(out, "Waiting for the authorization to complete...")

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}

// callbackHandler completes the authorization once. Requests carrying a
// foreign state are rejected and do not end the flow.
func callbackHandler(ctx context.Context, conf *oauth2.Config, saver google.TokenSaver, account, state string, result chan<- error) http.Handler {
	var once sync.Once

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		_, err := google.Authorize(ctx, conf, saver, account, conf.RedirectURL+"?"+r.URL.RawQuery)
		once.Do(func() { result <- err })

		if err != nil {
			http.Error(w, fmt.Sprintf("Authorization failed: %v", err), http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprintln(w, "Authorization complete. You can close this window.")
	})
}
