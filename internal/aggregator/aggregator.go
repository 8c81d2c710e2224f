// Package aggregator runs one refresh cycle: it pulls the catalog and the
// per-service summaries and reconciles them into a snapshot.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MimoJanra/StatusPulse/internal/metrics"
	"github.com/MimoJanra/StatusPulse/internal/models"
	"github.com/MimoJanra/StatusPulse/internal/reconcile"
	"github.com/MimoJanra/StatusPulse/internal/transport"
)

// Backend is the set of backend calls a refresh needs. *transport.Client
// implements it.
type Backend interface {
	Services(ctx context.Context) ([]models.ServiceDefinition, error)
	Summary(ctx context.Context, serviceID string, days int) (*models.MetricsSummary, error)
	ServicesWithMetrics(ctx context.Context, days int) ([]models.ServiceWithMetrics, error)
	DailyMetrics(ctx context.Context, serviceID string, days int) ([]models.DailyMetric, error)
}

// FailurePolicy decides how a service whose metrics could not be fetched is
// classified.
type FailurePolicy string

const (
	// PolicyUnknown reports the service as unknown.
	PolicyUnknown FailurePolicy = "unknown"
	// PolicyOutage reports 0% uptime, which classifies as outage.
	PolicyOutage FailurePolicy = "outage"
)

type Options struct {
	UseBatch      bool
	FailurePolicy FailurePolicy
	Now           func() time.Time
}

type Aggregator struct {
	backend Backend
	opts    Options
	logger  *zap.Logger
}

func New(backend Backend, opts Options, logger *zap.Logger) *Aggregator {
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = PolicyUnknown
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		backend: backend,
		opts:    opts,
		logger:  logger.Named("aggregator"),
	}
}

// LoadAll returns the statuses and metrics of every catalog service over the
// last days. Only a catalog failure (or cancellation of ctx) fails the call;
// a failed per-service fetch degrades that one entry.
func (a *Aggregator) LoadAll(ctx context.Context, days int) (*models.Snapshot, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, days)
	}

	start := time.Now()
	snap, err := a.loadAll(ctx, days)
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	metrics.RefreshesTotal.WithLabelValues(refreshResult(err)).Inc()

	if err != nil {
		return nil, err
	}
	a.logger.Info("refresh loaded",
		zap.Int("days", days),
		zap.Int("services", len(snap.Statuses)),
		zap.String("overall", string(snap.Overall)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap, nil
}

func (a *Aggregator) loadAll(ctx context.Context, days int) (*models.Snapshot, error) {
	if a.opts.UseBatch {
		items, err := a.backend.ServicesWithMetrics(ctx, days)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil {
			defs := make([]models.ServiceDefinition, len(items))
			summaries := make([]*models.MetricsSummary, len(items))
			for i, item := range items {
				defs[i] = item.Service
				summaries[i] = item.MetricsSummary
				if item.MetricsSummary == nil {
					a.fallback(item.Service.ID, errors.New("no metrics summary in batched response"))
				}
			}
			return a.build(defs, summaries, days), nil
		}
		a.logger.Warn("batched endpoint failed, falling back to per-service calls", zap.Error(err))
		metrics.BatchFallbacksTotal.Inc()
	}

	defs, err := a.backend.Services(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CatalogError{Cause: err}
	}

	summaries := a.fetchSummaries(ctx, defs, days)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return a.build(defs, summaries, days), nil
}

// fetchSummaries issues every summary call at once and waits for all of
// them. A failed call leaves a nil entry.
func (a *Aggregator) fetchSummaries(ctx context.Context, defs []models.ServiceDefinition, days int) []*models.MetricsSummary {
	summaries := make([]*models.MetricsSummary, len(defs))

	var g errgroup.Group
	for i, def := range defs {
		g.Go(func() error {
			summary, err := a.backend.Summary(ctx, def.ID, days)
			if err != nil {
				a.fallback(def.ID, err)
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}
	_ = g.Wait()

	return summaries
}

func (a *Aggregator) fallback(serviceID string, err error) {
	if transport.IsCanceled(err) {
		return
	}
	metrics.MetricsFallbacksTotal.Inc()
	a.logger.Warn("metrics unavailable, using empty fallback",
		zap.String("service_id", serviceID),
		zap.String("kind", string(transport.KindOf(err))),
		zap.Error(err),
	)
}

func (a *Aggregator) build(defs []models.ServiceDefinition, summaries []*models.MetricsSummary, days int) *models.Snapshot {
	snap := &models.Snapshot{
		Statuses:   make([]models.ServiceStatus, len(defs)),
		Metrics:    make([]models.ServiceMetrics, len(defs)),
		WindowDays: days,
		LoadedAt:   a.opts.Now(),
	}

	for i, def := range defs {
		summary := a.applyPolicy(def.ID, summaries[i])
		snap.Statuses[i] = reconcile.ToStatus(def, summary)

		m := reconcile.ToMetrics(def.ID, summary)
		m.ServiceID = def.ID
		snap.Metrics[i] = m
	}
	snap.Overall = reconcile.WorstOf(snap.Statuses)
	return snap
}

func (a *Aggregator) applyPolicy(serviceID string, summary *models.MetricsSummary) *models.MetricsSummary {
	if summary == nil && a.opts.FailurePolicy == PolicyOutage {
		return reconcile.ZeroSummary(serviceID)
	}
	return summary
}

// LoadService returns the detail view of one service. When the summary call
// fails the raw daily rows, if any, are folded into a summary instead.
func (a *Aggregator) LoadService(ctx context.Context, serviceID string, days int) (*models.ServiceDetail, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, days)
	}

	defs, err := a.backend.Services(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CatalogError{Cause: err}
	}

	var def *models.ServiceDefinition
	for i := range defs {
		if defs[i].ID == serviceID {
			def = &defs[i]
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}

	var (
		summary    *models.MetricsSummary
		summaryErr error
		rows       []models.DailyMetric
		g          errgroup.Group
	)
	g.Go(func() error {
		summary, summaryErr = a.backend.Summary(ctx, serviceID, days)
		return nil
	})
	g.Go(func() error {
		r, err := a.backend.DailyMetrics(ctx, serviceID, days)
		if err != nil {
			if !transport.IsCanceled(err) {
				a.logger.Warn("daily metrics unavailable",
					zap.String("service_id", serviceID),
					zap.Error(err),
				)
			}
			return nil
		}
		rows = r
		return nil
	})
	_ = g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if summaryErr != nil {
		if len(rows) > 0 {
			folded := reconcile.SummarizeDaily(serviceID, rows)
			summary = &folded
			a.logger.Info("summary rebuilt from daily rows",
				zap.String("service_id", serviceID),
				zap.Int("rows", len(rows)),
			)
		} else {
			a.fallback(serviceID, summaryErr)
		}
	}
	summary = a.applyPolicy(serviceID, summary)

	if rows == nil {
		rows = []models.DailyMetric{}
	}
	m := reconcile.ToMetrics(serviceID, summary)
	m.ServiceID = serviceID
	return &models.ServiceDetail{
		Definition: *def,
		Status:     reconcile.ToStatus(*def, summary),
		Metrics:    m,
		Daily:      rows,
	}, nil
}

func refreshResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrCatalogUnavailable):
		return "catalog_unavailable"
	default:
		return "error"
	}
}
