package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/teemow/gdrive-mcp/internal/docs"
	"github.com/teemow/gdrive-mcp/internal/drive"
	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/oauth"
)

// ErrShutdown is returned for client requests after Shutdown
var ErrShutdown = errors.New("server is shutting down")

// Options configure a ServerContext
type Options struct {
	// TokenProvider supplies the Google token of each account
	TokenProvider google.TokenProvider

	// OAuthConfig lets clients refresh expired tokens. Without it tokens are
	// used as they are.
	OAuthConfig *oauth2.Config

	Logger      *slog.Logger
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger

	// ReadOnly hides every tool that modifies Drive or Docs
	ReadOnly bool

	// ClientOptions are passed to every Google API service
	ClientOptions []option.ClientOption
}

// ServerContext holds what every tool handler needs: Google clients per
// account, created on first use, plus logging and instrumentation.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	mu           sync.RWMutex
	driveClients map[string]*drive.Client
	docsClients  map[string]*docs.Client
	shutdown     bool
}

// NewServerContext creates a server context. The context is cancelled on Shutdown.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.TokenProvider == nil {
		return nil, errors.New("token provider is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AuditLogger == nil {
		opts.AuditLogger = instrumentation.NewAuditLogger(opts.Logger, instrumentation.AuditLoggingConfig{})
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		opts:         opts,
		driveClients: make(map[string]*drive.Client),
		docsClients:  make(map[string]*docs.Client),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.opts.Logger
}

// Metrics returns the metrics recorder, which may be nil
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// AuditLogger returns the tool audit logger
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.opts.AuditLogger
}

// TokenProvider returns the token provider clients are built from
func (sc *ServerContext) TokenProvider() google.TokenProvider {
	return sc.opts.TokenProvider
}

// OAuthConfig returns the OAuth client configuration, which may be nil
func (sc *ServerContext) OAuthConfig() *oauth2.Config {
	return sc.opts.OAuthConfig
}

// ReadOnly reports whether write tools are disabled
func (sc *ServerContext) ReadOnly() bool {
	return sc.opts.ReadOnly
}

// cacheable reports whether clients for this request may be reused. Requests
// of a forwarded user carry their own, possibly rotating, token.
func cacheable(ctx context.Context) bool {
	_, ok := oauth.UserFromContext(ctx)
	return !ok
}

// DriveClient returns the Drive client for account
func (sc *ServerContext) DriveClient(ctx context.Context, account string) (*drive.Client, error) {
	if cacheable(ctx) {
		sc.mu.RLock()
		client, ok := sc.driveClients[account]
		sc.mu.RUnlock()
		if ok {
			return client, nil
		}
	}

	httpClient, clientCtx, err := sc.httpClient(ctx, account)
	if err != nil {
		return nil, err
	}
	client, err := drive.NewClient(clientCtx, httpClient, account, sc.opts.ClientOptions...)
	if err != nil {
		return nil, err
	}
	client.WithMetrics(sc.opts.Metrics)

	if cacheable(ctx) {
		sc.SetDriveClient(account, client)
	}
	return client, nil
}

// DocsClient returns the Docs client for account
func (sc *ServerContext) DocsClient(ctx context.Context, account string) (*docs.Client, error) {
	if cacheable(ctx) {
		sc.mu.RLock()
		client, ok := sc.docsClients[account]
		sc.mu.RUnlock()
		if ok {
			return client, nil
		}
	}

	httpClient, clientCtx, err := sc.httpClient(ctx, account)
	if err != nil {
		return nil, err
	}
	client, err := docs.NewClient(clientCtx, httpClient, account, sc.opts.ClientOptions...)
	if err != nil {
		return nil, err
	}
	client.WithMetrics(sc.opts.Metrics)

	if cacheable(ctx) {
		sc.SetDocsClient(account, client)
	}
	return client, nil
}

// httpClient builds an authorized HTTP client for account. Cached clients
// outlive the request, so they are bound to the server context instead.
func (sc *ServerContext) httpClient(ctx context.Context, account string) (*http.Client, context.Context, error) {
	if sc.IsShutdown() {
		return nil, nil, ErrShutdown
	}

	token, err := sc.opts.TokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get Google token for account %s: %w", account, err)
	}

	clientCtx := ctx
	if cacheable(ctx) {
		clientCtx = sc.ctx
	}
	return google.NewHTTPClient(clientCtx, sc.opts.OAuthConfig, token), clientCtx, nil
}

// SetDriveClient installs a Drive client for account, replacing any cached one
func (sc *ServerContext) SetDriveClient(account string, client *drive.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.driveClients[account] = client
}

// SetDocsClient installs a Docs client for account, replacing any cached one
func (sc *ServerContext) SetDocsClient(account string, client *docs.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.docsClients[account] = client
}

// ForgetAccount drops the cached clients of account so the next request
// picks up a new token
func (sc *ServerContext) ForgetAccount(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.driveClients, account)
	delete(sc.docsClients, account)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops all cached clients
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.driveClients = make(map[string]*drive.Client)
	sc.docsClients = make(map[string]*docs.Client)
	sc.cancel()
	return nil
}
