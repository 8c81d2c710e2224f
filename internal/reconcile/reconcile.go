// Package reconcile turns backend service definitions and metric summaries
// into the status and chart model. Everything here is pure.
package reconcile

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/MimoJanra/StatusPulse/internal/models"
)

const (
	OperationalThreshold = 99.9
	DegradedThreshold    = 95.0
	MaintenanceThreshold = 90.0
)

// Classify maps an uptime percentage onto a health state. Each threshold
// belongs to the band above it.
func Classify(uptimePct float64) models.HealthState {
	switch {
	case math.IsNaN(uptimePct):
		return models.StateUnknown
	case uptimePct >= OperationalThreshold:
		return models.StateOperational
	case uptimePct >= DegradedThreshold:
		return models.StateDegraded
	case uptimePct >= MaintenanceThreshold:
		return models.StateMaintenance
	default:
		return models.StateOutage
	}
}

// ToStatus builds the status of one service. A nil summary means no metrics
// were available and yields the unknown state.
func ToStatus(def models.ServiceDefinition, summary *models.MetricsSummary) models.ServiceStatus {
	status := models.ServiceStatus{
		ID:          def.ID,
		Name:        def.Name,
		HealthState: models.StateUnknown,
		LastUpdated: def.NextRunAt,
		Description: Describe(def),
	}
	if summary != nil {
		status.UptimePct = summary.CurrentUptimePct
		status.LatencyMs = summary.CurrentLatencyMs
		status.HealthState = Classify(summary.CurrentUptimePct)
	}
	return status
}

// Describe renders e.g. "HTTP service monitored every 60 seconds".
func Describe(def models.ServiceDefinition) string {
	kind := def.Kind.String()
	if kind == "" {
		kind = "Unknown"
	}
	return fmt.Sprintf("%s service monitored every %d seconds", kind, int64(def.CheckInterval/time.Second))
}

// ToMetrics maps a summary onto the chart model, keeping point order. A nil
// summary gives the empty fallback with a zero-length series.
func ToMetrics(serviceID string, summary *models.MetricsSummary) models.ServiceMetrics {
	if summary == nil {
		return EmptyMetrics(serviceID)
	}

	series := make([]models.SeriesPoint, len(summary.DailyPoints))
	for i, p := range summary.DailyPoints {
		series[i] = models.SeriesPoint{Date: p.Date, UptimePct: p.UptimePct, LatencyMs: p.LatencyMs}
	}

	avg := MeanLatency(series)
	if summary.AverageLatencyMs != nil {
		avg = *summary.AverageLatencyMs
	}

	if summary.ServiceID != "" {
		serviceID = summary.ServiceID
	}
	return models.ServiceMetrics{
		ServiceID:        serviceID,
		Series:           series,
		CurrentUptimePct: summary.CurrentUptimePct,
		CurrentLatencyMs: summary.CurrentLatencyMs,
		AverageLatencyMs: avg,
	}
}

func EmptyMetrics(serviceID string) models.ServiceMetrics {
	return models.ServiceMetrics{
		ServiceID: serviceID,
		Series:    []models.SeriesPoint{},
	}
}

// ZeroSummary is the legacy fallback: a summary that reads as 0% uptime.
func ZeroSummary(serviceID string) *models.MetricsSummary {
	return &models.MetricsSummary{
		ServiceID:   serviceID,
		DailyPoints: []models.DailyPoint{},
	}
}

// MeanLatency is the arithmetic mean of the series latencies, 0 when empty.
func MeanLatency(series []models.SeriesPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, p := range series {
		sum += p.LatencyMs
	}
	return sum / float64(len(series))
}

var severity = map[models.HealthState]int{
	models.StateOperational: 1,
	models.StateMaintenance: 2,
	models.StateDegraded:    3,
	models.StateOutage:      4,
}

// WorstOf returns the most severe state among statuses:
// outage > degraded > maintenance > operational. Unknown entries do not
// count; with nothing else left the result is unknown.
func WorstOf(statuses []models.ServiceStatus) models.HealthState {
	worst := models.StateUnknown
	for _, s := range statuses {
		if severity[s.HealthState] > severity[worst] {
			worst = s.HealthState
		}
	}
	return worst
}

// CountByState tallies statuses per health state.
func CountByState(statuses []models.ServiceStatus) map[models.HealthState]int {
	counts := make(map[models.HealthState]int, len(severity)+1)
	for _, s := range statuses {
		counts[s.HealthState]++
	}
	return counts
}

// SummarizeDaily folds raw daily rows into a summary. Rows are ordered by
// date first; the latest row is current. A row that reports checks but no
// uptime gets its uptime from the check counts.
func SummarizeDaily(serviceID string, rows []models.DailyMetric) models.MetricsSummary {
	summary := models.MetricsSummary{
		ServiceID:   serviceID,
		DailyPoints: make([]models.DailyPoint, 0, len(rows)),
	}
	if len(rows) == 0 {
		zero := 0.0
		summary.AverageLatencyMs = &zero
		return summary
	}

	sorted := slices.Clone(rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var total float64
	for _, r := range sorted {
		summary.DailyPoints = append(summary.DailyPoints, models.DailyPoint{
			Date:      r.Date,
			UptimePct: rowUptime(r),
			LatencyMs: r.AverageLatencyMs,
		})
		total += r.AverageLatencyMs
	}

	last := summary.DailyPoints[len(summary.DailyPoints)-1]
	avg := total / float64(len(sorted))
	summary.CurrentUptimePct = last.UptimePct
	summary.CurrentLatencyMs = last.LatencyMs
	summary.AverageLatencyMs = &avg
	return summary
}

func rowUptime(r models.DailyMetric) float64 {
	if r.UptimePct == 0 && r.TotalChecks > 0 {
		return UptimeFromChecks(r.SuccessfulChecks, r.TotalChecks)
	}
	return r.UptimePct
}

// UptimeFromChecks is successful/total as a percentage, 0 when total is 0.
func UptimeFromChecks(successful, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}
