package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Sumatoshi-tech/repoharvest/pkg/observability"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	err := json.Unmarshal(buf.Bytes(), &record)
	require.NoError(t, err)

	return record
}

func TestTracingHandler_ServiceAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repoharvest", "dev",
	)
	logger := slog.New(handler)

	logger.Info("collecting")

	record := logLine(t, &buf)

	assert.Equal(t, "repoharvest", record["service"])
	assert.Equal(t, "dev", record["env"])
}

func TestTracingHandler_NoTraceContextOutsideSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repoharvest", "",
	)
	logger := slog.New(handler)

	logger.InfoContext(context.Background(), "collecting")

	record := logLine(t, &buf)

	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "env")
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repoharvest", "",
	)
	logger := slog.New(handler)

	tp := sdktrace.NewTracerProvider()

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "collect")
	logger.InfoContext(ctx, "collecting")
	span.End()

	record := logLine(t, &buf)

	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
}

func TestTracingHandler_GroupsKeepServiceAtTopLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&buf, nil), "repoharvest", "",
	)
	logger := slog.New(handler).WithGroup("repo")

	logger.Info("collecting", "name", "widget")

	record := logLine(t, &buf)

	assert.Equal(t, "repoharvest", record["service"])

	group, ok := record["repo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "widget", group["name"])
}
