package handler

import (
	"net/http"

	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/service"

	"go.uber.org/zap"
)

type ActivityHandler struct {
	service *service.ActivityService
	logger  *zap.Logger
}

func NewActivityHandler(service *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	activeOnly, err := queryBool(r, "active")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	activities, err := h.service.List(r.Context(), user, activeOnly)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	a, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req models.CreateActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	a, err := h.service.Create(r.Context(), user, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Activity created", zap.String("user_id", user), zap.String("activity_id", a.ID))
	writeJSON(w, http.StatusCreated, a)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var req models.UpdateActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	a, err := h.service.Update(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	h.logger.Info("Activity deleted", zap.String("user_id", user), zap.String("activity_id", id))
	w.WriteHeader(http.StatusNoContent)
}
