// Package board holds the latest committed snapshot and serializes refreshes
// so that a late result never overwrites a newer one.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MimoJanra/StatusPulse/internal/metrics"
	"github.com/MimoJanra/StatusPulse/internal/models"
	"github.com/MimoJanra/StatusPulse/internal/notifications"
	"github.com/MimoJanra/StatusPulse/internal/reconcile"
)

var ErrSuperseded = errors.New("refresh superseded by a newer one")

type Loader interface {
	LoadAll(ctx context.Context, days int) (*models.Snapshot, error)
}

type Notifier interface {
	Notify(ctx context.Context, change notifications.StatusChange) error
}

// State is a point-in-time copy of the board.
type State struct {
	Snapshot      *models.Snapshot
	WindowDays    int
	LastError     error
	LastErrorAt   time.Time
	LastRefreshID string
	LastSuccessAt time.Time
	Refreshing    bool
}

type Board struct {
	loader   Loader
	notifier Notifier
	logger   *zap.Logger

	mu            sync.RWMutex
	days          int
	snapshot      *models.Snapshot
	lastErr       error
	lastErrAt     time.Time
	lastRefreshID string
	lastSuccessAt time.Time

	nextToken     uint64
	inFlight      uint64
	cancelRefresh context.CancelFunc

	stopChan chan struct{}
	running  bool
	wg       sync.WaitGroup
}

func New(loader Loader, days int, notifier Notifier, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{
		loader:   loader,
		notifier: notifier,
		logger:   logger.Named("board"),
		days:     days,
	}
}

func (b *Board) Window() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.days
}

// Snapshot returns the last committed snapshot, nil before the first success.
func (b *Board) Snapshot() *models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

func (b *Board) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return State{
		Snapshot:      b.snapshot,
		WindowDays:    b.days,
		LastError:     b.lastErr,
		LastErrorAt:   b.lastErrAt,
		LastRefreshID: b.lastRefreshID,
		LastSuccessAt: b.lastSuccessAt,
		Refreshing:    b.cancelRefresh != nil,
	}
}

// SetWindow switches the board window and refreshes with it.
func (b *Board) SetWindow(ctx context.Context, days int) (*models.Snapshot, error) {
	b.mu.Lock()
	b.days = days
	b.mu.Unlock()

	return b.Refresh(ctx, days)
}

// Refresh loads a new snapshot and commits it unless a newer refresh has
// started since. Starting a refresh cancels the one in flight; the
// superseded call returns ErrSuperseded and its result is dropped.
func (b *Board) Refresh(ctx context.Context, days int) (*models.Snapshot, error) {
	refreshCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	b.nextToken++
	token := b.nextToken
	if b.cancelRefresh != nil {
		b.cancelRefresh()
	}
	b.cancelRefresh = cancel
	b.inFlight = token
	b.mu.Unlock()

	defer func() {
		cancel()
		b.mu.Lock()
		if b.inFlight == token {
			b.cancelRefresh = nil
		}
		b.mu.Unlock()
	}()

	refreshID := uuid.NewString()
	logger := b.logger.With(
		zap.String("refresh_id", refreshID),
		zap.Uint64("token", token),
		zap.Int("days", days),
	)

	snap, err := b.loader.LoadAll(refreshCtx, days)

	b.mu.Lock()
	// A newer refresh has started, whether or not this load noticed the cancel.
	if token < b.nextToken || (refreshCtx.Err() != nil && ctx.Err() == nil) {
		b.mu.Unlock()
		metrics.SupersededRefreshesTotal.Inc()
		logger.Debug("discarding superseded refresh", zap.Error(err))
		return nil, ErrSuperseded
	}

	if err != nil {
		if ctx.Err() != nil {
			b.mu.Unlock()
			return nil, err
		}
		b.lastErr = err
		b.lastErrAt = time.Now()
		b.lastRefreshID = refreshID
		hasSnapshot := b.snapshot != nil
		b.mu.Unlock()

		logger.Error("refresh failed", zap.Error(err), zap.Bool("keeping_last_snapshot", hasSnapshot))
		return nil, err
	}

	prev := b.snapshot
	b.snapshot = snap
	b.lastErr = nil
	b.lastErrAt = time.Time{}
	b.lastRefreshID = refreshID
	b.lastSuccessAt = time.Now()
	b.mu.Unlock()

	publishStateCounts(snap)
	metrics.LastRefreshTimestamp.Set(float64(snap.LoadedAt.Unix()))
	logger.Info("snapshot committed",
		zap.Int("services", len(snap.Statuses)),
		zap.String("overall", string(snap.Overall)),
	)

	if change, ok := notifications.Diff(prev, snap); ok && b.notifier != nil {
		change.RefreshID = refreshID
		if err := b.notifier.Notify(context.WithoutCancel(ctx), change); err != nil {
			logger.Warn("status change notification failed", zap.Error(err))
		}
	}
	return snap, nil
}

var allStates = []string{
	string(models.StateOperational),
	string(models.StateDegraded),
	string(models.StateMaintenance),
	string(models.StateOutage),
	string(models.StateUnknown),
}

func publishStateCounts(snap *models.Snapshot) {
	counts := make(map[string]int, len(allStates))
	for state, n := range reconcile.CountByState(snap.Statuses) {
		counts[string(state)] = n
	}
	metrics.SetStateCounts(counts, allStates)
}

// Start refreshes immediately and then every interval until Stop. A
// non-positive interval starts nothing.
func (b *Board) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.stopChan = make(chan struct{})
	stop := b.stopChan
	b.mu.Unlock()

	b.logger.Info("refresh loop started", zap.Duration("interval", interval))

	b.wg.Add(1)
	go b.loop(interval, stop)
}

func (b *Board) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stopChan)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("refresh loop stopped")
}

func (b *Board) loop(interval time.Duration, stop chan struct{}) {
	defer b.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.tick(ctx)
	for {
		select {
		case <-ticker.C:
			b.tick(ctx)
		case <-stop:
			return
		}
	}
}

func (b *Board) tick(ctx context.Context) {
	_, err := b.Refresh(ctx, b.Window())
	if err != nil && !errors.Is(err, ErrSuperseded) && ctx.Err() == nil {
		b.logger.Debug("scheduled refresh did not commit", zap.Error(err))
	}
}
