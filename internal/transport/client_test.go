package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, Timeout: timeout}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, DefaultBaseURL, c.baseURL)

	_, err = NewClient(Config{BaseURL: "localhost:3001"}, nil)
	assert.Error(t, err)
}

func TestClient_Services(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/http", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a","name":"API Gateway","kind":{"HTTP":{"url":"http://x/health"}},"interval":{"secs":30,"nanos":0},"next_run":"2024-05-01T10:00:00Z"},
			{"id":"b","name":"Database","kind":{"TCP":{"host":"db","port":5432}},"interval":{"secs":60,"nanos":0},"next_run":"2024-05-01T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	services, err := newTestClient(t, srv.URL, time.Second).Services(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "a", services[0].ID)
	assert.Equal(t, "b", services[1].ID)
	assert.Equal(t, time.Minute, services[1].CheckInterval)
}

func TestClient_SummaryPathAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/svc%2F1/summary", r.URL.EscapedPath())
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{"current_uptime":98.5,"current_latency_ms":150,"average_latency_ms":140,"uptime_data":[]}`))
	}))
	defer srv.Close()

	summary, err := newTestClient(t, srv.URL, time.Second).Summary(context.Background(), "svc/1", 7)
	require.NoError(t, err)
	assert.Equal(t, "svc/1", summary.ServiceID)
	assert.Equal(t, 98.5, summary.CurrentUptimePct)
	require.NotNil(t, summary.AverageLatencyMs)
	assert.Equal(t, 140.0, *summary.AverageLatencyMs)
}

func TestClient_ServicesWithMetricsFillsServiceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services_with_metrics", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"service":{"id":"a","name":"A","kind":"HTTP","interval":30,"next_run":"2024-05-01T10:00:00Z"},"metrics_summary":{"current_uptime":100,"current_latency_ms":10,"uptime_data":[]}},
			{"service":{"id":"b","name":"B","kind":"TCP","interval":30,"next_run":"2024-05-01T10:00:00Z"},"metrics_summary":null}
		]`))
	}))
	defer srv.Close()

	items, err := newTestClient(t, srv.URL, time.Second).ServicesWithMetrics(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].MetricsSummary)
	assert.Equal(t, "a", items[0].MetricsSummary.ServiceID)
	assert.Nil(t, items[1].MetricsSummary)
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   Kind
		target error
	}{
		{"not found", http.StatusNotFound, KindNotFound, ErrNotFound},
		{"server error", http.StatusBadGateway, KindServerError, ErrServerError},
		{"other client error", http.StatusTeapot, KindHTTP, ErrHTTP},
		{"unauthorized", http.StatusUnauthorized, KindHTTP, ErrHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			err := newTestClient(t, srv.URL, time.Second).get(context.Background(), endpointCatalog, "/http", nil, &[]any{})
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.True(t, errors.Is(err, tt.target))

			var te *Error
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.status, te.Status)
		})
	}
}

func TestClient_ServerErrorMatchesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL, time.Second).get(context.Background(), endpointCatalog, "/http", nil, nil)
	assert.True(t, errors.Is(err, &Error{Kind: KindServerError, Status: http.StatusServiceUnavailable}))
	assert.False(t, errors.Is(err, &Error{Kind: KindServerError, Status: http.StatusBadGateway}))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	err := newTestClient(t, srv.URL, 50*time.Millisecond).get(context.Background(), endpointCatalog, "/http", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.GreaterOrEqual(t, te.Elapsed, 50*time.Millisecond)
	assert.Contains(t, te.Error(), "timeout after")
}

func TestClient_NetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := newTestClient(t, url, time.Second).get(context.Background(), endpointCatalog, "/http", nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindNetworkUnreachable, KindOf(err))
}

func TestClient_CallerCancel(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := newTestClient(t, srv.URL, 5*time.Second).get(ctx, endpointCatalog, "/http", nil, nil)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Services(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestClient_DailyMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics/a", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`[{"id":"r1","service_id":"a","date":"2024-01-01","uptime_percentage":99.2,"average_latency_ms":120,"total_checks":100,"successful_checks":99,"created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}]`))
	}))
	defer srv.Close()

	rows, err := newTestClient(t, srv.URL, time.Second).DailyMetrics(context.Background(), "a", 30)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 99, rows[0].SuccessfulChecks)
	assert.Equal(t, "2024-01-01", rows[0].Date.String())
}

func TestKindOf_NonTransportError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
