package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/middleware"
	"Mansoor88-6/schedule-tracker/internal/timeutil"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = apperrors.Format("request body is empty")

type errorResponse struct {
	Error     string            `json:"error"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status. Internal errors are logged and hidden
// from the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	resp := errorResponse{RequestID: middleware.RequestIDFrom(r.Context())}

	var appErr *apperrors.Error
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", resp.RequestID),
			zap.Error(err),
		)
		resp.Error = "internal error"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	resp.Error = appErr.Message
	resp.Details = appErr.Details
	writeJSON(w, status, resp)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

// decodeJSON reads a single JSON object. Malformed bodies are format errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return apperrors.Wrap(apperrors.KindFormat, "invalid request body", err)
	}
	return nil
}

func userID(r *http.Request) (string, error) {
	id, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		return "", apperrors.Auth("unauthenticated")
	}
	return id, nil
}

func requireID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		return "", apperrors.Format("missing id parameter")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Format("invalid " + name + " parameter").WithDetail(name, "must be an integer")
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.Format("invalid " + name + " parameter").WithDetail(name, "must be true or false")
	}
	return b, nil
}

// queryDate parses a YYYY-MM-DD or RFC 3339 parameter. Absent yields nil.
func queryDate(r *http.Request, name string, loc *time.Location) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	t, err := timeutil.ParseDate(v, loc)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			appErr.WithDetail(name, "must be YYYY-MM-DD")
		}
		return nil, err
	}
	return &t, nil
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:     "route not found",
		RequestID: middleware.RequestIDFrom(r.Context()),
	})
}
