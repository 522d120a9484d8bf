package handler

import (
	"context"
	"net/http"
	"time"

	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/timeutil"

	"go.uber.org/zap"
)

// HealthChecker reports store liveness and round-trip latency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (time.Duration, error)
}

type SystemHandler struct {
	db      HealthChecker
	clock   clock.Clock
	loc     *time.Location
	started time.Time
	logger  *zap.Logger
}

func NewSystemHandler(db HealthChecker, c clock.Clock, loc *time.Location, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		db:      db,
		clock:   c,
		loc:     loc,
		started: c.Now(),
		logger:  logger,
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Database  dbHealth  `json:"database"`
}

type dbHealth struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// Health is unauthenticated. It answers 503 when the store is unreachable.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	now := h.clock.Now()
	resp := healthResponse{
		Status:    "ok",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.started).Round(time.Second).String(),
		Database:  dbHealth{Status: "ok"},
	}
	status := http.StatusOK

	latency, err := h.db.HealthCheck(ctx)
	if err != nil {
		h.logger.Warn("Database health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = dbHealth{Status: "down", Error: err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		resp.Database.LatencyMS = float64(latency.Microseconds()) / 1000
	}
	writeJSON(w, status, resp)
}

type timeResponse struct {
	UserID        string    `json:"user_id"`
	NowUTC        time.Time `json:"now_utc"`
	NowLocal      string    `json:"now_local"`
	Timezone      string    `json:"timezone"`
	OffsetMinutes int       `json:"offset_minutes"`
	Today         string    `json:"today"`
	WeekStart     string    `json:"week_start"`
	Weekday       int       `json:"weekday"`
}

// Time reports how the server sees the current moment, for diagnosing
// clients whose wall clock or zone disagrees.
func (h *SystemHandler) Time(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	now := h.clock.Now().In(h.loc)
	_, offset := now.Zone()
	writeJSON(w, http.StatusOK, timeResponse{
		UserID:        user,
		NowUTC:        now.UTC(),
		NowLocal:      now.Format(time.RFC3339),
		Timezone:      h.loc.String(),
		OffsetMinutes: offset / 60,
		Today:         timeutil.FormatDate(now),
		WeekStart:     timeutil.FormatDate(timeutil.MondayOf(now)),
		Weekday:       timeutil.ISOWeekday(now),
	})
}
