package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type HealthState string

const (
	StateOperational HealthState = "operational"
	StateDegraded    HealthState = "degraded"
	StateMaintenance HealthState = "maintenance"
	StateOutage      HealthState = "outage"
	StateUnknown     HealthState = "unknown"
)

// Headline is the dashboard banner text for an overall state.
func (s HealthState) Headline() string {
	switch s {
	case StateOperational:
		return "All Systems Operational"
	case StateDegraded:
		return "Partial System Outage"
	case StateOutage:
		return "Major System Outage"
	case StateMaintenance:
		return "Scheduled Maintenance"
	default:
		return "System Status Unknown"
	}
}

// ServiceDefinition is one entry of the backend service catalog.
type ServiceDefinition struct {
	ID            string        `json:"id" example:"6f1c2a5e-4b0d-4d7e-9a51-0c7a3f1d2b10"`
	Name          string        `json:"name" example:"API Gateway"`
	Kind          ServiceKind   `json:"kind"`
	CheckInterval time.Duration `json:"interval" swaggertype:"integer" example:"30"`
	NextRunAt     time.Time     `json:"next_run" example:"2024-01-01T12:00:00Z"`
}

type wireInterval struct {
	Secs  int64 `json:"secs"`
	Nanos int64 `json:"nanos"`
}

type wireService struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Kind     ServiceKind     `json:"kind"`
	Interval json.RawMessage `json:"interval"`
	NextRun  time.Time       `json:"next_run"`
}

func (d ServiceDefinition) MarshalJSON() ([]byte, error) {
	interval, err := json.Marshal(wireInterval{
		Secs:  int64(d.CheckInterval / time.Second),
		Nanos: int64(d.CheckInterval % time.Second),
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireService{
		ID:       d.ID,
		Name:     d.Name,
		Kind:     d.Kind,
		Interval: interval,
		NextRun:  d.NextRunAt,
	})
}

// UnmarshalJSON accepts the interval either as {"secs","nanos"} or as a
// plain number of seconds.
func (d *ServiceDefinition) UnmarshalJSON(data []byte) error {
	var w wireService
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	interval, err := parseInterval(w.Interval)
	if err != nil {
		return fmt.Errorf("service %s: %w", w.ID, err)
	}

	*d = ServiceDefinition{
		ID:            w.ID,
		Name:          w.Name,
		Kind:          w.Kind,
		CheckInterval: interval,
		NextRunAt:     w.NextRun,
	}
	return nil
}

func parseInterval(raw json.RawMessage) (time.Duration, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	var w wireInterval
	if err := json.Unmarshal(raw, &w); err != nil {
		return 0, fmt.Errorf("invalid interval: %w", err)
	}
	return time.Duration(w.Secs)*time.Second + time.Duration(w.Nanos), nil
}

type DailyPoint struct {
	Date      Date    `json:"date" swaggertype:"string" example:"2024-01-01"`
	UptimePct float64 `json:"uptime_percentage" example:"99.95"`
	LatencyMs float64 `json:"latency_ms" example:"45"`
}

// MetricsSummary is the backend rollup of one service over a window.
// AverageLatencyMs is nil when the backend leaves it out.
type MetricsSummary struct {
	ServiceID        string       `json:"service_id"`
	CurrentUptimePct float64      `json:"current_uptime" example:"99.98"`
	CurrentLatencyMs float64      `json:"current_latency_ms" example:"45"`
	AverageLatencyMs *float64     `json:"average_latency_ms,omitempty" example:"48"`
	DailyPoints      []DailyPoint `json:"uptime_data"`
}

// DailyMetric is a raw per-day row as stored by the backend.
type DailyMetric struct {
	ID               string    `json:"id"`
	ServiceID        string    `json:"service_id"`
	Date             Date      `json:"date" swaggertype:"string" example:"2024-01-01"`
	UptimePct        float64   `json:"uptime_percentage" example:"99.3"`
	AverageLatencyMs float64   `json:"average_latency_ms" example:"120"`
	TotalChecks      int       `json:"total_checks" example:"2880"`
	SuccessfulChecks int       `json:"successful_checks" example:"2860"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ServiceWithMetrics is one element of the batched catalog response.
type ServiceWithMetrics struct {
	Service        ServiceDefinition `json:"service"`
	MetricsSummary *MetricsSummary   `json:"metrics_summary"`
}

type ServiceStatus struct {
	ID          string      `json:"id" example:"6f1c2a5e-4b0d-4d7e-9a51-0c7a3f1d2b10"`
	Name        string      `json:"name" example:"API Gateway"`
	HealthState HealthState `json:"status" example:"operational"`
	UptimePct   float64     `json:"uptime" example:"99.98"`
	LatencyMs   float64     `json:"latency" example:"45"`
	LastUpdated time.Time   `json:"lastUpdated" example:"2024-01-01T12:00:00Z"`
	Description string      `json:"description" example:"HTTP service monitored every 30 seconds"`
}

type SeriesPoint struct {
	Date      Date    `json:"date" swaggertype:"string" example:"2024-01-01"`
	UptimePct float64 `json:"uptime" example:"99.95"`
	LatencyMs float64 `json:"latency" example:"45"`
}

// ServiceMetrics is the chart-ready view of a summary. Series is empty, never
// nil, when no metrics were available.
type ServiceMetrics struct {
	ServiceID        string        `json:"serviceId"`
	Series           []SeriesPoint `json:"uptimeData"`
	CurrentUptimePct float64       `json:"currentUptime" example:"99.98"`
	CurrentLatencyMs float64       `json:"currentLatency" example:"45"`
	AverageLatencyMs float64       `json:"averageLatency" example:"48"`
}

// Snapshot is the result of one refresh cycle. Statuses and Metrics share the
// same IDs in the same (backend) order.
type Snapshot struct {
	Statuses   []ServiceStatus  `json:"statuses"`
	Metrics    []ServiceMetrics `json:"metrics"`
	Overall    HealthState      `json:"overall" example:"operational"`
	WindowDays int              `json:"window_days" example:"30"`
	LoadedAt   time.Time        `json:"loaded_at"`
}

// Status returns the status with the given ID.
func (s *Snapshot) Status(id string) (ServiceStatus, bool) {
	for _, st := range s.Statuses {
		if st.ID == id {
			return st, true
		}
	}
	return ServiceStatus{}, false
}

// MetricsFor returns the metrics with the given service ID.
func (s *Snapshot) MetricsFor(id string) (ServiceMetrics, bool) {
	for _, m := range s.Metrics {
		if m.ServiceID == id {
			return m, true
		}
	}
	return ServiceMetrics{}, false
}

// ServiceDetail is the single-service view with the raw daily rows.
type ServiceDetail struct {
	Definition ServiceDefinition `json:"service"`
	Status     ServiceStatus     `json:"status"`
	Metrics    ServiceMetrics    `json:"metrics"`
	Daily      []DailyMetric     `json:"daily"`
}
