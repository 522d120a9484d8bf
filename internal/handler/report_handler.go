package handler

import (
	"net/http"
	"time"

	"Mansoor88-6/schedule-tracker/internal/service"

	"go.uber.org/zap"
)

// ReportHandler serves the read-only weekly views: the dashboard and the
// segment usage report.
type ReportHandler struct {
	dashboard *service.DashboardService
	usage     *service.UsageService
	loc       *time.Location
	logger    *zap.Logger
}

func NewReportHandler(dashboard *service.DashboardService, usage *service.UsageService, loc *time.Location, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		dashboard: dashboard,
		usage:     usage,
		loc:       loc,
		logger:    logger,
	}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	weekStart, err := queryDate(r, "weekStart", h.loc)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	dash, err := h.dashboard.Weekly(r.Context(), user, weekStart)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *ReportHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	weekStart, err := queryDate(r, "weekStart", h.loc)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	asFree, err := queryBool(r, "unassigned_as_free")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rep, err := h.usage.Usage(r.Context(), user, service.UsageQuery{
		WeekStart:        weekStart,
		Template:         r.URL.Query().Get("template"),
		UnassignedAsFree: asFree,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
