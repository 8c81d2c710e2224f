package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/MimoJanra/StatusPulse/internal/aggregator"
	"github.com/MimoJanra/StatusPulse/internal/board"
	"github.com/MimoJanra/StatusPulse/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const healthPingTimeout = 2 * time.Second

type Aggregator interface {
	LoadAll(ctx context.Context, days int) (*models.Snapshot, error)
	LoadService(ctx context.Context, serviceID string, days int) (*models.ServiceDetail, error)
}

type StatusBoard interface {
	State() board.State
	Window() int
	Refresh(ctx context.Context, days int) (*models.Snapshot, error)
	SetWindow(ctx context.Context, days int) (*models.Snapshot, error)
}

type SnapshotCache interface {
	GetSnapshot(ctx context.Context, days int) (*models.Snapshot, bool, error)
	SetSnapshot(ctx context.Context, snap *models.Snapshot) error
	Invalidate(ctx context.Context, windows ...int) error
	Ping(ctx context.Context) error
}

type Options struct {
	AllowedWindows       []int
	RefreshRatePerMinute int
	// Cache is optional.
	Cache SnapshotCache
}

type Server struct {
	aggregator Aggregator
	board      StatusBoard
	cache      SnapshotCache
	windows    []int
	limiter    *rate.Limiter
	group      singleflight.Group
	logger     *zap.Logger
}

func NewServer(agg Aggregator, b StatusBoard, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	perMinute := opts.RefreshRatePerMinute
	if perMinute <= 0 {
		perMinute = 6
	}
	return &Server{
		aggregator: agg,
		board:      b,
		cache:      opts.Cache,
		windows:    opts.AllowedWindows,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:     logger.Named("api"),
	}
}

// StatusResponse is a snapshot with the dashboard headline and the state of
// the last refresh.
type StatusResponse struct {
	Overall    models.HealthState      `json:"overall" example:"degraded"`
	Headline   string                  `json:"headline" example:"Partial System Outage"`
	WindowDays int                     `json:"window_days" example:"30"`
	Statuses   []models.ServiceStatus  `json:"statuses"`
	Metrics    []models.ServiceMetrics `json:"metrics"`
	LoadedAt   time.Time               `json:"loaded_at"`
	LastError  string                  `json:"last_error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"service catalog unavailable"`
}

type HealthResponse struct {
	Status        string     `json:"status" example:"ok"`
	WindowDays    int        `json:"window_days" example:"30"`
	Services      int        `json:"services" example:"12"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	Refreshing    bool       `json:"refreshing"`
	Cache         string     `json:"cache,omitempty" example:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeLoadError maps a load failure onto a status code.
func (s *Server) writeLoadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, aggregator.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, aggregator.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, aggregator.ErrCatalogUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, board.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "status load timed out")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		s.logger.Error("unexpected load error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load status")
	}
}

// parseDays returns the window of the "days" query parameter, or the board
// window when absent.
func (s *Server) parseDays(r *http.Request) (int, bool, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return s.board.Window(), false, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, true, errors.New("invalid days")
	}
	if len(s.windows) > 0 && !slices.Contains(s.windows, days) {
		return 0, true, errors.New("days must be one of " + joinInts(s.windows))
	}
	return days, true, nil
}

func joinInts(values []int) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += strconv.Itoa(v)
	}
	return out
}

// snapshotFor serves the board snapshot when it covers days and loads the
// window on demand otherwise.
func (s *Server) snapshotFor(ctx context.Context, days int) (*models.Snapshot, string, error) {
	if days == s.board.Window() {
		st := s.board.State()
		if st.Snapshot != nil && st.Snapshot.WindowDays == days {
			lastErr := ""
			if st.LastError != nil {
				lastErr = st.LastError.Error()
			}
			return st.Snapshot, lastErr, nil
		}
	}
	snap, err := s.loadWindow(ctx, days)
	return snap, "", err
}

// loadWindow coalesces concurrent loads of the same window and caches the
// result when a cache is configured.
func (s *Server) loadWindow(ctx context.Context, days int) (*models.Snapshot, error) {
	if s.cache != nil {
		snap, ok, err := s.cache.GetSnapshot(ctx, days)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", zap.Int("days", days), zap.Error(err))
		}
		if ok {
			return snap, nil
		}
	}

	v, err, shared := s.group.Do(strconv.Itoa(days), func() (any, error) {
		snap, err := s.aggregator.LoadAll(context.WithoutCancel(ctx), days)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetSnapshot(context.WithoutCancel(ctx), snap); err != nil {
				s.logger.Warn("snapshot cache write failed", zap.Int("days", days), zap.Error(err))
			}
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("on-demand load shared", zap.Int("days", days))
	}
	return v.(*models.Snapshot), nil
}

func newStatusResponse(snap *models.Snapshot, lastErr string) StatusResponse {
	return StatusResponse{
		Overall:    snap.Overall,
		Headline:   snap.Overall.Headline(),
		WindowDays: snap.WindowDays,
		Statuses:   snap.Statuses,
		Metrics:    snap.Metrics,
		LoadedAt:   snap.LoadedAt,
		LastError:  lastErr,
	}
}

// GetStatus godoc
// @Summary      Current status of every service
// @Tags         status
// @Produce      json
// @Param        days  query     int  false  "Lookback window in days"
// @Success      200   {object}  StatusResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /api/status [get]
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	days, _, err := s.parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, lastErr, err := s.snapshotFor(r.Context(), days)
	if err != nil {
		s.writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(snap, lastErr))
}

// GetServices godoc
// @Summary      Service statuses
// @Tags         services
// @Produce      json
// @Param        days     query     int     false  "Lookback window in days"
// @Param        service  query     string  false  "Only this service"
// @Success      200      {array}   models.ServiceStatus
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Router       /api/services [get]
func (s *Server) GetServices(w http.ResponseWriter, r *http.Request) {
	days, _, err := s.parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, _, err := s.snapshotFor(r.Context(), days)
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	if id := r.URL.Query().Get("service"); id != "" {
		st, ok := snap.Status(id)
		if !ok {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		writeJSON(w, http.StatusOK, []models.ServiceStatus{st})
		return
	}
	writeJSON(w, http.StatusOK, snap.Statuses)
}

// GetService godoc
// @Summary      Detail of one service with its daily rows
// @Tags         services
// @Produce      json
// @Param        id    path      string  true   "Service ID"
// @Param        days  query     int     false  "Lookback window in days"
// @Success      200   {object}  models.ServiceDetail
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /api/services/{id} [get]
func (s *Server) GetService(w http.ResponseWriter, r *http.Request) {
	days, _, err := s.parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := s.aggregator.LoadService(r.Context(), chi.URLParam(r, "id"), days)
	if err != nil {
		s.writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetServiceMetrics godoc
// @Summary      Chart series of one service
// @Tags         services
// @Produce      json
// @Param        id    path      string  true   "Service ID"
// @Param        days  query     int     false  "Lookback window in days"
// @Success      200   {object}  models.ServiceMetrics
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /api/services/{id}/metrics [get]
func (s *Server) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	days, _, err := s.parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, _, err := s.snapshotFor(r.Context(), days)
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	m, ok := snap.MetricsFor(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Refresh godoc
// @Summary      Refresh the board now
// @Description  Optionally switches the board window. Throttled.
// @Tags         status
// @Produce      json
// @Param        days  query     int  false  "New board window in days"
// @Success      200   {object}  StatusResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Router       /api/refresh [post]
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	days, set, err := s.parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "10")
		writeError(w, http.StatusTooManyRequests, "refresh rate limit exceeded")
		return
	}

	var snap *models.Snapshot
	if set && days != s.board.Window() {
		snap, err = s.board.SetWindow(r.Context(), days)
	} else {
		snap, err = s.board.Refresh(r.Context(), days)
	}
	if err != nil {
		s.writeLoadError(w, err)
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(r.Context(), days); err != nil {
			s.logger.Warn("snapshot cache invalidation failed", zap.Int("days", days), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, newStatusResponse(snap, ""))
}

// Health godoc
// @Summary      Liveness and last refresh info
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /healthz [get]
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	st := s.board.State()

	resp := HealthResponse{
		Status:     "ok",
		WindowDays: st.WindowDays,
		Refreshing: st.Refreshing,
	}
	if st.Snapshot != nil {
		resp.Services = len(st.Snapshot.Statuses)
	}
	if !st.LastSuccessAt.IsZero() {
		at := st.LastSuccessAt
		resp.LastSuccessAt = &at
	}
	if st.LastError != nil {
		resp.Status = "degraded"
		resp.LastError = st.LastError.Error()
	}
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		resp.Cache = "ok"
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Warn("snapshot cache ping failed", zap.Error(err))
			resp.Cache = "unreachable"
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
