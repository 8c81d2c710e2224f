package transport

import (
	"context"
	"net/url"
	"strconv"

	"github.com/MimoJanra/StatusPulse/internal/models"
)

const (
	endpointCatalog = "catalog"
	endpointSummary = "summary"
	endpointBatch   = "batch"
	endpointDaily   = "daily"
)

// Services fetches the service catalog.
func (c *Client) Services(ctx context.Context) ([]models.ServiceDefinition, error) {
	var services []models.ServiceDefinition
	if err := c.get(ctx, endpointCatalog, "/http", nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// Summary fetches the metrics summary of one service over the last days.
func (c *Client) Summary(ctx context.Context, serviceID string, days int) (*models.MetricsSummary, error) {
	var summary models.MetricsSummary
	path := "/metrics/" + url.PathEscape(serviceID) + "/summary"
	if err := c.get(ctx, endpointSummary, path, daysQuery(days), &summary); err != nil {
		return nil, err
	}
	if summary.ServiceID == "" {
		summary.ServiceID = serviceID
	}
	return &summary, nil
}

// ServicesWithMetrics fetches the catalog with every summary in one call.
func (c *Client) ServicesWithMetrics(ctx context.Context, days int) ([]models.ServiceWithMetrics, error) {
	var items []models.ServiceWithMetrics
	if err := c.get(ctx, endpointBatch, "/services_with_metrics", daysQuery(days), &items); err != nil {
		return nil, err
	}
	for i := range items {
		if s := items[i].MetricsSummary; s != nil && s.ServiceID == "" {
			s.ServiceID = items[i].Service.ID
		}
	}
	return items, nil
}

// DailyMetrics fetches the raw daily rows of one service.
func (c *Client) DailyMetrics(ctx context.Context, serviceID string, days int) ([]models.DailyMetric, error) {
	var rows []models.DailyMetric
	path := "/metrics/" + url.PathEscape(serviceID)
	if err := c.get(ctx, endpointDaily, path, daysQuery(days), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func daysQuery(days int) url.Values {
	if days <= 0 {
		return nil
	}
	return url.Values{"days": []string{strconv.Itoa(days)}}
}
