package common

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/server"
)

// newTestServerContext returns a server context whose audit log is captured
// in the returned buffer
func newTestServerContext(t *testing.T, readOnly bool) (*server.ServerContext, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sc, err := server.NewServerContext(context.Background(), server.Options{
		TokenProvider: google.NewFileTokenProvider(t.TempDir()),
		Logger:        logger,
		AuditLogger:   instrumentation.NewAuditLogger(logger, instrumentation.AuditLoggingConfig{Enabled: true}),
		ReadOnly:      readOnly,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, &buf
}
