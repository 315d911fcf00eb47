package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricProvider_Prometheus(t *testing.T) {
	reg := promclient.NewRegistry()

	provider, err := NewMetricProvider(
		WithServiceName("whitelist-test"),
		WithRegisterer(reg),
		WithProviderConfig(ProviderCfg{Provider: PrometheusProvider}),
	)
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	counter, err := provider.Meter("test").Int64Counter("test_events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	server := NewPrometheusServer(WithHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_events_total")
}

func TestNewMetricProvider_UnknownProvider(t *testing.T) {
	_, err := NewMetricProvider(WithProviderConfig(ProviderCfg{Provider: "statsd"}))
	assert.Error(t, err)
}

func TestNewMetricProvider_NoReaders(t *testing.T) {
	provider, err := NewMetricProvider()
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))
}
