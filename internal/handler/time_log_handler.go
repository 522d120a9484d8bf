package handler

import (
	"errors"
	"net/http"
	"time"

	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/service"

	"go.uber.org/zap"
)

type TimeLogHandler struct {
	service *service.TimeLogService
	loc     *time.Location
	logger  *zap.Logger
}

func NewTimeLogHandler(service *service.TimeLogService, loc *time.Location, logger *zap.Logger) *TimeLogHandler {
	return &TimeLogHandler{
		service: service,
		loc:     loc,
		logger:  logger,
	}
}

func (h *TimeLogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("id") != "" {
			h.Get(w, r)
		} else {
			h.List(w, r)
		}
	case http.MethodPost:
		h.Create(w, r)
	case http.MethodPatch:
		h.Update(w, r)
	case http.MethodDelete:
		h.Delete(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete)
	}
}

func (h *TimeLogHandler) parseQuery(r *http.Request) (service.LogQuery, error) {
	q := r.URL.Query()
	lq := service.LogQuery{
		ActivityID: q.Get("activity_id"),
		Source:     models.LogSource(q.Get("source")),
		SegmentID:  q.Get("segment_id"),
		Order:      models.LogOrder(q.Get("order")),
	}

	var err error
	if lq.Week, err = queryDate(r, "week", h.loc); err != nil {
		return lq, err
	}
	if lq.Date, err = queryDate(r, "date", h.loc); err != nil {
		return lq, err
	}
	if lq.NoSegment, err = queryBool(r, "no_segment"); err != nil {
		return lq, err
	}
	if lq.Limit, err = queryInt(r, "limit"); err != nil {
		return lq, err
	}
	if lq.Offset, err = queryInt(r, "offset"); err != nil {
		return lq, err
	}
	return lq, nil
}

func (h *TimeLogHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.service.List(r.Context(), user, q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if page.Logs == nil {
		page.Logs = []*models.TimeLog{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *TimeLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := requireID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *TimeLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req models.CreateLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.service.Create(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *TimeLogHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := requireID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req models.UpdateLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.service.Update(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *TimeLogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := requireID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), user, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start accepts an optional body with activity_id and comment.
func (h *TimeLogHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req models.StartLogRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			writeError(w, r, h.logger, err)
			return
		}
	}

	l, err := h.service.Start(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Log started", zap.String("user_id", user), zap.String("log_id", l.ID))
	writeJSON(w, http.StatusCreated, l)
}

func (h *TimeLogHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.service.Terminate(r.Context(), user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Log terminated",
		zap.String("user_id", user),
		zap.String("log_id", l.ID),
		zap.Int("minutes", l.Minutes),
	)
	writeJSON(w, http.StatusOK, l)
}

func (h *TimeLogHandler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	cur, err := h.service.Current(r.Context(), user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}
