package observability_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repoharvest/pkg/observability"
)

func TestInit_NoopByDefault(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	// A fixed loopback port; port 0 would be unknowable to the scrape below.
	cfg.MetricsAddr = "127.0.0.1:19464"

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	counter, err := providers.Meter.Int64Counter("repoharvest.test.total")
	require.NoError(t, err)

	counter.Add(context.Background(), 1)

	var body string

	require.Eventually(t, func() bool {
		resp, getErr := http.Get(fmt.Sprintf("http://%s/metrics", cfg.MetricsAddr))
		if getErr != nil {
			return false
		}

		defer resp.Body.Close()

		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return false
		}

		body = string(raw)

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	assert.Contains(t, body, "repoharvest_test_total")
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))

	headers := observability.ParseOTLPHeaders("x-api-key=secret, x-team = infra")

	require.Len(t, headers, 2)
	assert.Equal(t, "secret", headers["x-api-key"])
	assert.Equal(t, "infra", headers["x-team"])
}
