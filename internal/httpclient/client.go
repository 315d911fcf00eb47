package httpclient

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	meterName            = "github.com/fd1az/whitelist-sync/internal/httpclient"
	metricRequestCounter = "http_client_requests_total"
)

// New returns an *http.Client whose transport is traced with otelhttp and
// counts requests per provider.
func New(opts ...ClientOption) *http.Client {
	options := NewClientOptions(opts...)

	counter, err := otel.Meter(meterName).Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total outgoing HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		counter = nil
	}

	rt := &headerTransport{
		base:     defaultTransport(),
		headers:  options.headers,
		provider: options.providerName,
		counter:  counter,
	}

	return &http.Client{
		Timeout: options.requestTimeout,
		Transport: otelhttp.NewTransport(rt,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return options.providerName + " " + r.Method
			}),
		),
	}
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		MaxConnsPerHost:       defaultMaxConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
}

type headerTransport struct {
	base     http.RoundTripper
	headers  map[string]string
	provider string
	counter  metric.Int64Counter
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := t.base.RoundTrip(req)

	if t.counter != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.counter.Add(req.Context(), 1, metric.WithAttributes(
			attribute.String("provider", t.provider),
			attribute.Int("status", status),
		))
	}

	return resp, err
}
