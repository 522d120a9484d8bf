package handler

import (
	"net/http"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/service"

	"go.uber.org/zap"
)

type SegmentHandler struct {
	service *service.SegmentService
	clock   clock.Clock
	loc     *time.Location
	logger  *zap.Logger
}

func NewSegmentHandler(service *service.SegmentService, c clock.Clock, loc *time.Location, logger *zap.Logger) *SegmentHandler {
	return &SegmentHandler{
		service: service,
		clock:   c,
		loc:     loc,
		logger:  logger,
	}
}

func (h *SegmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

// List serves mode=current (default, optional weekday), mode=historical
// (weekStart, default this week) and mode=all.
func (h *SegmentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ctx := r.Context()
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "current":
		weekday, err := queryInt(r, "weekday")
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		segments, err := h.service.ListCurrent(ctx, user, weekday)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(segments))
	case "historical":
		weekStart, err := queryDate(r, "weekStart", h.loc)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		ref := h.clock.Now()
		if weekStart != nil {
			ref = *weekStart
		}
		segments, err := h.service.ListHistorical(ctx, user, ref)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(segments))
	case "all":
		listings, err := h.service.ListAll(ctx, user)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if listings == nil {
			listings = []*models.SegmentListing{}
		}
		writeJSON(w, http.StatusOK, listings)
	default:
		writeError(w, r, h.logger, apperrors.Field("mode", "must be current, historical or all"))
	}
}

func nonNil(segments []*models.ScheduleSegment) []*models.ScheduleSegment {
	if segments == nil {
		return []*models.ScheduleSegment{}
	}
	return segments
}

func (h *SegmentHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	s, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SegmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req models.CreateSegmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s, err := h.service.Create(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Segment created",
		zap.String("user_id", user),
		zap.String("segment_id", s.ID),
		zap.Int("weekday", s.Weekday),
	)
	writeJSON(w, http.StatusCreated, s)
}

func (h *SegmentHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var req models.UpdateSegmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.service.Update(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Segment updated",
		zap.String("user_id", user),
		zap.String("segment_id", id),
		zap.String("mode", res.Mode),
		zap.String("effective_from", res.Segment.EffectiveFrom),
	)
	writeJSON(w, http.StatusOK, res)
}

func (h *SegmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
