package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/oauth"
)

// DefaultEndpointPath is where the streamable HTTP transport is served
const DefaultEndpointPath = "/mcp"

const authRealm = "gdrive-mcp"

// HTTPServerConfig configures the streamable HTTP transport
type HTTPServerConfig struct {
	Addr string

	// EndpointPath defaults to DefaultEndpointPath
	EndpointPath string

	// DisableStreaming answers every request with a single JSON response
	DisableStreaming bool

	// TokenStore enables forwarded Google tokens when set
	TokenStore storage.TokenStore

	// TokenValidator accepts Google access tokens as bearer tokens
	TokenValidator oauth.TokenValidator

	// AllowAnonymous serves MCP requests without an authenticated user. They
	// act on the server's own account tokens.
	AllowAnonymous bool

	Version string
}

// HTTPServer serves an MCP server over streamable HTTP next to the health
// probes
type HTTPServer struct {
	httpServer *http.Server
	health     *HealthChecker
	logger     *slog.Logger
}

// NewHTTPServer builds the HTTP server without starting it
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) *HTTPServer {
	if config.EndpointPath == "" {
		config.EndpointPath = DefaultEndpointPath
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(config.EndpointPath),
		mcpserver.WithDisableStreaming(config.DisableStreaming),
	)

	var mcpHandler http.Handler = streamable
	if !config.AllowAnonymous {
		mcpHandler = oauth.RequireUserMiddleware(oauth.AuthConfig{
			Validator: config.TokenValidator,
			Realm:     authRealm,
			Logger:    sc.Logger(),
			Metrics:   sc.Metrics(),
		})(mcpHandler)
	}
	if config.TokenStore != nil {
		mcpHandler = oauth.ForwardedTokenMiddleware(oauth.MiddlewareConfig{
			Store:   config.TokenStore,
			Logger:  sc.Logger(),
			Metrics: sc.Metrics(),
		})(mcpHandler)
	}

	health := NewHealthChecker(sc, config.Version)

	mux := http.NewServeMux()
	mux.Handle(config.EndpointPath, mcpHandler)
	health.RegisterHealthEndpoints(mux)

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           requestMetrics(sc, mux),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		health: health,
		logger: sc.Logger(),
	}
}

// Handler returns the root handler, including middleware
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured address
func (s *HTTPServer) Addr() string {
	return s.httpServer.Addr
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting MCP HTTP server", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains open connections
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// requestMetrics records method, path, status and duration of every request
func requestMetrics(sc *ServerContext, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
