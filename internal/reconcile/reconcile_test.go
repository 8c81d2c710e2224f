package reconcile

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimoJanra/StatusPulse/internal/models"
)

func TestClassify_Bands(t *testing.T) {
	tests := []struct {
		uptime float64
		want   models.HealthState
	}{
		{100, models.StateOperational},
		{99.98, models.StateOperational},
		{99.9, models.StateOperational},
		{99.89, models.StateDegraded},
		{98.5, models.StateDegraded},
		{95.0, models.StateDegraded},
		{94.99, models.StateMaintenance},
		{90.0, models.StateMaintenance},
		{89.99, models.StateOutage},
		{0, models.StateOutage},
		{-1, models.StateOutage},
		{math.NaN(), models.StateUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.uptime), "uptime %v", tt.uptime)
	}
}

func TestClassify_RandomizedBands(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		u := rng.Float64() * 100
		got := Classify(u)
		switch {
		case u >= 99.9:
			require.Equal(t, models.StateOperational, got, "uptime %v", u)
		case u >= 95.0:
			require.Equal(t, models.StateDegraded, got, "uptime %v", u)
		case u >= 90.0:
			require.Equal(t, models.StateMaintenance, got, "uptime %v", u)
		default:
			require.Equal(t, models.StateOutage, got, "uptime %v", u)
		}
	}
}

func httpService(id, name string, interval time.Duration) models.ServiceDefinition {
	return models.ServiceDefinition{
		ID:            id,
		Name:          name,
		Kind:          models.HTTPKind(models.HTTPTarget{URL: "http://" + id + "/health"}),
		CheckInterval: interval,
		NextRunAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestToStatus(t *testing.T) {
	def := httpService("api-gateway", "API Gateway", 60*time.Second)
	summary := &models.MetricsSummary{ServiceID: "api-gateway", CurrentUptimePct: 99.98, CurrentLatencyMs: 45}

	st := ToStatus(def, summary)
	assert.Equal(t, "api-gateway", st.ID)
	assert.Equal(t, "API Gateway", st.Name)
	assert.Equal(t, models.StateOperational, st.HealthState)
	assert.Equal(t, 99.98, st.UptimePct)
	assert.Equal(t, 45.0, st.LatencyMs)
	assert.Equal(t, def.NextRunAt, st.LastUpdated)
	assert.Equal(t, "HTTP service monitored every 60 seconds", st.Description)
}

func TestToStatus_NoMetrics(t *testing.T) {
	def := models.ServiceDefinition{
		ID:            "db",
		Name:          "Database",
		Kind:          models.TCPKind(models.TCPTarget{Host: "db", Port: 5432}),
		CheckInterval: 30 * time.Second,
	}

	st := ToStatus(def, nil)
	assert.Equal(t, models.StateUnknown, st.HealthState)
	assert.Zero(t, st.UptimePct)
	assert.Zero(t, st.LatencyMs)
	assert.Equal(t, "TCP service monitored every 30 seconds", st.Description)
}

func TestToStatus_ZeroSummaryIsOutage(t *testing.T) {
	st := ToStatus(httpService("a", "A", time.Minute), ZeroSummary("a"))
	assert.Equal(t, models.StateOutage, st.HealthState)
}

func TestDescribe_UnsetKind(t *testing.T) {
	assert.Equal(t, "Unknown service monitored every 0 seconds", Describe(models.ServiceDefinition{}))
}

func TestToMetrics_PreservesOrderAndLength(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 50; n++ {
		points := make([]models.DailyPoint, n)
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := range points {
			points[i] = models.DailyPoint{
				Date:      models.DateOf(start.AddDate(0, 0, i)),
				UptimePct: 90 + rng.Float64()*10,
				LatencyMs: float64(rng.Intn(500)),
			}
		}

		m := ToMetrics("svc", &models.MetricsSummary{ServiceID: "svc", DailyPoints: points})
		require.Len(t, m.Series, n)
		for i := range points {
			require.Equal(t, points[i].Date, m.Series[i].Date)
			require.Equal(t, points[i].UptimePct, m.Series[i].UptimePct)
			require.Equal(t, points[i].LatencyMs, m.Series[i].LatencyMs)
		}
	}
}

func TestToMetrics_DoesNotSort(t *testing.T) {
	points := []models.DailyPoint{
		{Date: models.MustDate("2024-01-03"), LatencyMs: 30},
		{Date: models.MustDate("2024-01-01"), LatencyMs: 10},
		{Date: models.MustDate("2024-01-02"), LatencyMs: 20},
	}
	m := ToMetrics("svc", &models.MetricsSummary{DailyPoints: points})
	require.Len(t, m.Series, 3)
	assert.Equal(t, "2024-01-03", m.Series[0].Date.String())
	assert.Equal(t, "2024-01-01", m.Series[1].Date.String())
	assert.Equal(t, "svc", m.ServiceID)
}

func TestToMetrics_AverageLatency(t *testing.T) {
	points := []models.DailyPoint{
		{Date: models.MustDate("2024-01-01"), LatencyMs: 40},
		{Date: models.MustDate("2024-01-02"), LatencyMs: 50},
		{Date: models.MustDate("2024-01-03"), LatencyMs: 60},
	}

	derived := ToMetrics("svc", &models.MetricsSummary{DailyPoints: points})
	assert.InDelta(t, 50.0, derived.AverageLatencyMs, 1e-9)

	backend := 55.0
	supplied := ToMetrics("svc", &models.MetricsSummary{DailyPoints: points, AverageLatencyMs: &backend})
	assert.Equal(t, 55.0, supplied.AverageLatencyMs)

	// Independent recomputation agrees with a consistent backend value.
	consistent := 50.0
	checked := ToMetrics("svc", &models.MetricsSummary{DailyPoints: points, AverageLatencyMs: &consistent})
	assert.InDelta(t, MeanLatency(checked.Series), checked.AverageLatencyMs, 1e-9)
}

func TestToMetrics_NilSummary(t *testing.T) {
	m := ToMetrics("svc", nil)
	assert.Equal(t, "svc", m.ServiceID)
	require.NotNil(t, m.Series)
	assert.Empty(t, m.Series)
	assert.Zero(t, m.CurrentUptimePct)
	assert.Zero(t, m.CurrentLatencyMs)
	assert.Zero(t, m.AverageLatencyMs)
}

func statuses(states ...models.HealthState) []models.ServiceStatus {
	out := make([]models.ServiceStatus, len(states))
	for i, s := range states {
		out[i] = models.ServiceStatus{ID: string(rune('a' + i)), HealthState: s}
	}
	return out
}

func TestWorstOf(t *testing.T) {
	assert.Equal(t, models.StateUnknown, WorstOf(nil))
	assert.Equal(t, models.StateUnknown, WorstOf([]models.ServiceStatus{}))
	assert.Equal(t, models.StateOperational, WorstOf(statuses(models.StateOperational)))
	assert.Equal(t, models.StateDegraded, WorstOf(statuses(models.StateOperational, models.StateDegraded)))
	assert.Equal(t, models.StateDegraded, WorstOf(statuses(models.StateMaintenance, models.StateDegraded)))
	assert.Equal(t, models.StateMaintenance, WorstOf(statuses(models.StateOperational, models.StateMaintenance)))
	assert.Equal(t, models.StateOutage, WorstOf(statuses(models.StateOutage, models.StateDegraded, models.StateMaintenance)))
	assert.Equal(t, models.StateOperational, WorstOf(statuses(models.StateUnknown, models.StateOperational)))
	assert.Equal(t, models.StateUnknown, WorstOf(statuses(models.StateUnknown, models.StateUnknown)))
}

func TestWorstOf_OrderIndependent(t *testing.T) {
	all := []models.HealthState{
		models.StateOperational, models.StateDegraded, models.StateMaintenance,
		models.StateOutage, models.StateUnknown,
	}
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 500; i++ {
		n := rng.Intn(8)
		in := make([]models.HealthState, n)
		for j := range in {
			in[j] = all[rng.Intn(len(all))]
		}
		want := WorstOf(statuses(in...))

		rng.Shuffle(len(in), func(a, b int) { in[a], in[b] = in[b], in[a] })
		require.Equal(t, want, WorstOf(statuses(in...)))
	}
}

func TestSummarizeDaily(t *testing.T) {
	rows := []models.DailyMetric{
		{Date: models.MustDate("2024-01-01"), UptimePct: 99.0, AverageLatencyMs: 100},
		{Date: models.MustDate("2024-01-02"), UptimePct: 98.0, AverageLatencyMs: 200},
		{Date: models.MustDate("2024-01-03"), UptimePct: 99.95, AverageLatencyMs: 300},
	}

	s := SummarizeDaily("svc", rows)
	assert.Equal(t, "svc", s.ServiceID)
	assert.Equal(t, 99.95, s.CurrentUptimePct)
	assert.Equal(t, 300.0, s.CurrentLatencyMs)
	require.NotNil(t, s.AverageLatencyMs)
	assert.InDelta(t, 200.0, *s.AverageLatencyMs, 1e-9)
	require.Len(t, s.DailyPoints, 3)
	assert.Equal(t, "2024-01-02", s.DailyPoints[1].Date.String())

	empty := SummarizeDaily("svc", nil)
	assert.Empty(t, empty.DailyPoints)
	assert.Zero(t, empty.CurrentUptimePct)
}

func TestSummarizeDaily_OrdersRowsAndDerivesUptime(t *testing.T) {
	rows := []models.DailyMetric{
		{Date: models.MustDate("2024-01-03"), TotalChecks: 4, SuccessfulChecks: 3, AverageLatencyMs: 300},
		{Date: models.MustDate("2024-01-01"), UptimePct: 99.0, AverageLatencyMs: 100},
		{Date: models.MustDate("2024-01-02"), UptimePct: 0, TotalChecks: 0, AverageLatencyMs: 200},
	}

	s := SummarizeDaily("svc", rows)
	require.Len(t, s.DailyPoints, 3)
	assert.Equal(t, "2024-01-01", s.DailyPoints[0].Date.String())
	assert.Equal(t, 0.0, s.DailyPoints[1].UptimePct)
	assert.Equal(t, "2024-01-03", s.DailyPoints[2].Date.String())
	assert.Equal(t, 75.0, s.CurrentUptimePct)
	assert.Equal(t, 300.0, s.CurrentLatencyMs)
	assert.Equal(t, "2024-01-03", rows[0].Date.String())
}

func TestUptimeFromChecks(t *testing.T) {
	assert.Equal(t, 0.0, UptimeFromChecks(5, 0))
	assert.Equal(t, 50.0, UptimeFromChecks(1, 2))
	assert.Equal(t, 100.0, UptimeFromChecks(10, 10))
}

func TestCountByState(t *testing.T) {
	counts := CountByState(statuses(models.StateOperational, models.StateOperational, models.StateOutage))
	assert.Equal(t, 2, counts[models.StateOperational])
	assert.Equal(t, 1, counts[models.StateOutage])
	assert.Equal(t, 0, counts[models.StateDegraded])
}

func BenchmarkClassify(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Classify(float64(i % 101))
	}
}

func BenchmarkToMetrics(b *testing.B) {
	points := make([]models.DailyPoint, 90)
	for i := range points {
		points[i] = models.DailyPoint{UptimePct: 99.5, LatencyMs: float64(i)}
	}
	summary := &models.MetricsSummary{ServiceID: "svc", DailyPoints: points}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ToMetrics("svc", summary)
	}
}
