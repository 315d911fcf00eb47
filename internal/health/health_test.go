package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/whitelist-sync/internal/logger"
)

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s := NewServer(0, "v1", logger.NewNop())
	s.RegisterCheck("wallet", func(context.Context) (bool, string) { return true, "not connected" })

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "v1", status.Version)
	assert.Equal(t, Check{Healthy: true, Message: "not connected"}, status.Checks["wallet"])
}

func TestServer_Degraded(t *testing.T) {
	s := NewServer(0, "v1", logger.NewNop())
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return false, "stale" })

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "degraded", status.Status)

	ready := get(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)

	live := get(t, s, "/live")
	assert.Equal(t, http.StatusOK, live.Code)
}

func TestStaleness(t *testing.T) {
	tests := []struct {
		name    string
		last    time.Time
		healthy bool
	}{
		{name: "never observed", last: time.Time{}, healthy: false},
		{name: "fresh", last: time.Now(), healthy: true},
		{name: "stale", last: time.Now().Add(-time.Minute), healthy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := Staleness(func() time.Time { return tt.last }, 10*time.Second)
			healthy, _ := check(context.Background())
			assert.Equal(t, tt.healthy, healthy)
		})
	}
}
