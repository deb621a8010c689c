package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/logging"
	"github.com/teemow/gdrive-mcp/internal/oauth"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/docs_tools"
	"github.com/teemow/gdrive-mcp/internal/tools/drive_tools"
	"github.com/teemow/gdrive-mcp/internal/tools/google_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool `json:"metrics_enabled"`

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string `json:"metrics_addr"`
}

// ServeConfig is the merged result of serve flags, config file and environment
type ServeConfig struct {
	Transport        string `json:"transport"`
	HTTPAddr         string `json:"http_addr"`
	Yolo             bool   `json:"yolo"`
	Debug            bool   `json:"debug"`
	LogFormat        string `json:"log_format"`
	DisableStreaming bool   `json:"disable_streaming"`
	ForwardedTokens  bool   `json:"forwarded_tokens"`
	TokenDir         string `json:"token_dir"`

	// AllowUnauthenticated serves /mcp to anyone who can reach it, acting
	// on the local account tokens
	AllowUnauthenticated bool `json:"allow_unauthenticated"`

	// Google OAuth client. Falls back to GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`

	Metrics MetricsConfig `json:"metrics"`
}

// Validate checks the combination of settings
func (c ServeConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Transport,
			validation.Required,
			validation.In(transportStdio, transportStreamableHTTP).Error("must be stdio or streamable-http"),
		),
		validation.Field(&c.HTTPAddr, validation.When(c.Transport == transportStreamableHTTP, validation.Required)),
		validation.Field(&c.LogFormat, validation.In(string(logging.FormatText), string(logging.FormatJSON))),
		validation.Field(&c.ForwardedTokens,
			validation.When(c.Transport != transportStreamableHTTP, validation.Empty.Error("requires the streamable-http transport")),
		),
		validation.Field(&c.AllowUnauthenticated,
			validation.When(c.Transport != transportStreamableHTTP, validation.Empty.Error("requires the streamable-http transport")),
		),
	)
}

// loadServeConfig reads the serve settings from v, which has the serve flags
// bound
func loadServeConfig(v *viper.Viper) ServeConfig {
	return ServeConfig{
		Transport:            v.GetString("transport"),
		HTTPAddr:             v.GetString("http-addr"),
		Yolo:                 v.GetBool("yolo"),
		Debug:                v.GetBool("debug"),
		LogFormat:            v.GetString("log-format"),
		DisableStreaming:     v.GetBool("disable-streaming"),
		ForwardedTokens:      v.GetBool("forwarded-tokens"),
		TokenDir:             v.GetString("token-dir"),
		AllowUnauthenticated: v.GetBool("allow-unauthenticated"),
		GoogleClientID:       v.GetString("google-client-id"),
		GoogleClientSecret:   v.GetString("google-client-secret"),
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics-enabled"),
			Addr:    v.GetString("metrics-addr"),
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server with the Google Drive and
Google Docs tools.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport, with health probes

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (creating documents, deleting files, etc.)

Every setting can also come from the config file or from GDRIVE_MCP_* environment
variables, e.g. GDRIVE_MCP_HTTP_ADDR. Flags win over both.

Authentication:
  Every /mcp request over streamable-http belongs to a user. Clients send their
  own Google access token as a bearer token, which is validated with Google
  using the configured OAuth client. With --forwarded-tokens an authenticating
  gateway in front of the server passes the user's Google token in the
  X-Forwarded-Email and X-Google-Access-Token headers instead. Users only ever
  act with their own token, never with the local token files.

  --allow-unauthenticated turns authentication off and lets every client act
  on the local token files. Only use it on a loopback address.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadServeConfig(viper.GetViper())
			if err := config.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runServe(shutdownCtx, config)
		},
	}

	cmd.Flags().String("transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().String("http-addr", "127.0.0.1:8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().Bool("yolo", false, "Enable write operations (creating documents, deleting files, etc.). Default is read-only mode.")
	cmd.Flags().Bool("debug", false, "Enable debug logging")
	cmd.Flags().String("log-format", string(logging.FormatText), "Log format: text or json")
	cmd.Flags().Bool("disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().Bool("forwarded-tokens", false, "Accept Google tokens forwarded by a gateway in request headers (streamable-http only)")
	cmd.Flags().String("token-dir", "", "Directory holding the account token files (default: <user cache dir>/gdrive-mcp)")
	cmd.Flags().Bool("allow-unauthenticated", false, "Serve streamable-http without authentication, using the local token files for every client")
	cmd.Flags().String("google-client-id", "", "Google OAuth Client ID for token refresh and the auth tools. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().String("google-client-secret", "", "Google OAuth Client Secret for token refresh and the auth tools. Can also use GOOGLE_CLIENT_SECRET env var.")

	// Metrics server flags
	cmd.Flags().Bool("metrics-enabled", true, "Enable the metrics server on a dedicated port (streamable-http only)")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

// resolveCredentials prefers explicitly configured credentials over the
// GOOGLE_CLIENT_* environment
func resolveCredentials(clientID, clientSecret string) google.Credentials {
	creds := google.CredentialsFromEnv()
	if clientID != "" {
		creds.ClientID = clientID
	}
	if clientSecret != "" {
		creds.ClientSecret = clientSecret
	}
	return creds
}

func runServe(ctx context.Context, config ServeConfig) error {
	// stdout belongs to the stdio transport
	logger := logging.New(os.Stderr, logging.Options{
		Debug:  config.Debug,
		Format: logging.Format(config.LogFormat),
	})
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var oauthConfig *oauth2.Config
	creds := resolveCredentials(config.GoogleClientID, config.GoogleClientSecret)
	if err := creds.Validate(); err != nil {
		logger.Warn("No Google OAuth client configured, tokens are not refreshed and the auth tools are disabled")
	} else {
		oauthConfig = creds.OAuthConfig(google.DefaultRedirectURL)
	}

	fileProvider := google.NewFileTokenProvider(config.TokenDir)
	var tokenProvider google.TokenProvider = fileProvider
	var auth httpAuth
	if config.Transport == transportStreamableHTTP {
		store := memory.New()
		defer store.Stop()
		tokenProvider = oauth.NewTokenProvider(store, fileProvider)

		if auth, err = newHTTPAuth(config, creds, store); err != nil {
			return err
		}
		if auth.allowAnonymous {
			logger.Warn("Authentication is DISABLED, every client acts on the local token files", slog.String("addr", config.HTTPAddr))
		}
	}

	serverContext, err := server.NewServerContext(ctx, server.Options{
		TokenProvider: tokenProvider,
		OAuthConfig:   oauthConfig,
		Logger:        logger,
		Metrics:       provider.Metrics(),
		AuditLogger:   instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging),
		ReadOnly:      !config.Yolo,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Error during server context shutdown", logging.Err(err))
		}
	}()

	if serverContext.ReadOnly() {
		logger.Info("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("Starting server with WRITE operations enabled (--yolo flag is set)")
	}

	mcpSrv := newMCPServer(serverContext)

	switch config.Transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(ctx, mcpSrv, serverContext, config, provider, auth)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", config.Transport)
	}
}

// newMCPServer creates the MCP server and registers every tool the server
// context allows
func newMCPServer(sc *server.ServerContext) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer(appName, version,
		mcpserver.WithToolCapabilities(true),
	)

	var names []string
	names = append(names, drive_tools.RegisterDriveTools(mcpSrv, sc)...)
	names = append(names, docs_tools.RegisterDocsTools(mcpSrv, sc)...)
	names = append(names, google_tools.RegisterGoogleTools(mcpSrv, sc)...)

	sc.Logger().Info("Registered tools", slog.Int("count", len(names)), slog.Bool("read_only", sc.ReadOnly()))
	sc.Logger().Debug("Tool names", slog.Any("tools", names))

	return mcpSrv
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// httpAuth is how the streamable HTTP transport authenticates its users
type httpAuth struct {
	tokenStore     storage.TokenStore
	validator      oauth.TokenValidator
	allowAnonymous bool
}

// newHTTPAuth picks the authentication of the HTTP transport. Bearer tokens
// are validated whenever an OAuth client is configured. Without one, requests
// can only be authenticated by a gateway forwarding tokens.
func newHTTPAuth(config ServeConfig, creds google.Credentials, store storage.TokenStore) (httpAuth, error) {
	auth := httpAuth{allowAnonymous: config.AllowUnauthenticated}
	if config.ForwardedTokens {
		auth.tokenStore = store
	}
	if auth.allowAnonymous {
		return auth, nil
	}

	validator, err := oauth.NewGoogleTokenValidator(creds)
	if err != nil && !config.ForwardedTokens {
		return httpAuth{}, fmt.Errorf("streamable-http needs a Google OAuth client to validate bearer tokens, --forwarded-tokens or --allow-unauthenticated: %w", err)
	}
	auth.validator = validator
	return auth, nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, config ServeConfig, provider *instrumentation.Provider, auth httpAuth) error {
	logger := sc.Logger()

	if config.Metrics.Enabled && provider.Enabled() && provider.Handler() != nil {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.Metrics.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("Metrics server stopped with error", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	httpServer := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:             config.HTTPAddr,
		DisableStreaming: config.DisableStreaming,
		TokenStore:       auth.tokenStore,
		TokenValidator:   auth.validator,
		AllowAnonymous:   auth.allowAnonymous,
		Version:          version,
	})

	logger.Info("Streamable HTTP server starting",
		slog.String("addr", config.HTTPAddr),
		slog.String("endpoint", server.DefaultEndpointPath),
		slog.Bool("forwarded_tokens", auth.tokenStore != nil),
		slog.Bool("bearer_tokens", auth.validator != nil),
		slog.Bool("authenticated", !auth.allowAnonymous),
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
