package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/MimoJanra/StatusPulse/internal/models"
	"github.com/MimoJanra/StatusPulse/internal/transport"
)

// slowSummaryBackend serves two services; the summary of file-storage
// answers only after the client timeout has passed.
func slowSummaryBackend(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/http", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"api-gateway","name":"API Gateway","kind":{"HTTP":{"url":"http://gw/health"}},"interval":{"secs":30,"nanos":0},"next_run":"2024-05-01T10:00:00Z"},
			{"id":"file-storage","name":"File Storage","kind":{"TCP":{"host":"fs","port":9000}},"interval":{"secs":60,"nanos":0},"next_run":"2024-05-01T10:00:00Z"}
		]`))
	})
	mux.HandleFunc("/metrics/api-gateway/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"service_id":"api-gateway","current_uptime":99.98,"current_latency_ms":45,
			"uptime_data":[{"date":"2024-05-01","uptime_percentage":99.98,"latency_ms":45}]}`))
	})
	mux.HandleFunc("/metrics/file-storage/summary", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"service_id":"file-storage","current_uptime":98.5,"current_latency_ms":150,"uptime_data":[]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadAll_SummaryTimeoutOverHTTP(t *testing.T) {
	tests := []struct {
		name   string
		policy FailurePolicy
		want   models.HealthState
	}{
		{"unknown policy", PolicyUnknown, models.StateUnknown},
		{"outage policy", PolicyOutage, models.StateOutage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := slowSummaryBackend(t, time.Second)
			client, err := transport.NewClient(transport.Config{
				BaseURL: srv.URL,
				Timeout: 100 * time.Millisecond,
			}, zaptest.NewLogger(t))
			require.NoError(t, err)

			a := New(client, Options{FailurePolicy: tt.policy}, zaptest.NewLogger(t))

			snap, err := a.LoadAll(context.Background(), 30)
			require.NoError(t, err)
			require.Len(t, snap.Statuses, 2)
			require.Len(t, snap.Metrics, 2)

			assert.Equal(t, "api-gateway", snap.Statuses[0].ID)
			assert.Equal(t, models.StateOperational, snap.Statuses[0].HealthState)
			assert.Len(t, snap.Metrics[0].Series, 1)

			assert.Equal(t, "file-storage", snap.Statuses[1].ID)
			assert.Equal(t, tt.want, snap.Statuses[1].HealthState)
			assert.Zero(t, snap.Statuses[1].UptimePct)
			assert.Equal(t, "file-storage", snap.Metrics[1].ServiceID)
			require.NotNil(t, snap.Metrics[1].Series)
			assert.Empty(t, snap.Metrics[1].Series)
		})
	}
}
