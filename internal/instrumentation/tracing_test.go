package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartToolSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartToolSpan(context.Background(), "docs_get_document")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.docs_get_document", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestStartGoogleAPISpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartGoogleAPISpan(context.Background(), ServiceDrive, OperationDelete, "file-123")
	EndSpan(span, errors.New("forbidden"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "google.drive.delete", s.Name())
	assert.Equal(t, trace.SpanKindClient, s.SpanKind())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "forbidden", s.Status().Description)

	found := false
	for _, kv := range s.Attributes() {
		if string(kv.Key) == SpanAttrResourceID {
			found = true
			assert.Equal(t, "file-123", kv.Value.AsString())
		}
	}
	assert.True(t, found)
}

func TestTraceIDs_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}

func TestObserveGoogleAPI(t *testing.T) {
	recorder := withRecorder(t)
	boom := errors.New("boom")

	var inner context.Context
	err := ObserveGoogleAPI(context.Background(), nil, ServiceDrive, OperationDelete, "file-123", func(ctx context.Context) error {
		inner = ctx
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NotEmpty(t, GetSpanID(inner))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "google.drive.delete", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
