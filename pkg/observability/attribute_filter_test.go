package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/repoharvest/pkg/observability"
)

func spanAttributes(t *testing.T, attrs ...attribute.KeyValue) []attribute.KeyValue {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	processor := observability.NewAttributeFilter(
		sdktrace.NewSimpleSpanProcessor(exporter), nil,
	)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(processor))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	_, span := tp.Tracer("test").Start(context.Background(), "collect")
	span.SetAttributes(attrs...)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	return spans[0].Attributes
}

func TestAttributeFilter_AllowsDomainKeys(t *testing.T) {
	t.Parallel()

	attrs := spanAttributes(t,
		attribute.String("repo.name", "widget"),
		attribute.Int("collect.versions", 3),
	)

	assert.Len(t, attrs, 2)
}

func TestAttributeFilter_StripsPII(t *testing.T) {
	t.Parallel()

	attrs := spanAttributes(t,
		attribute.String("repo.name", "widget"),
		attribute.String("email", "alice@example.com"),
		attribute.String("developer.name", "Alice"),
		attribute.String("username", "alice"),
	)

	require.Len(t, attrs, 1)
	assert.Equal(t, "repo.name", string(attrs[0].Key))
}

func TestAttributeFilter_StripsUnknownKeys(t *testing.T) {
	t.Parallel()

	attrs := spanAttributes(t,
		attribute.String("totally.unknown", "value"),
	)

	assert.Empty(t, attrs)
}
