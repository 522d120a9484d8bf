package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/clock"

	"go.uber.org/zap"
)

type fakeChecker struct {
	latency time.Duration
	err     error
}

func (f fakeChecker) HealthCheck(context.Context) (time.Duration, error) {
	return f.latency, f.err
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
		{"wrapped internal", apperrors.Wrap(apperrors.KindInternal, "query failed", errors.New("x")), http.StatusInternalServerError, "internal error"},
		{"validation", apperrors.Field("name", "too short"), http.StatusUnprocessableEntity, "validation failed"},
		{"format", apperrors.Format("bad date"), http.StatusBadRequest, "bad date"},
		{"not found", apperrors.NotFound("activity not found"), http.StatusNotFound, "activity not found"},
		{"state", apperrors.State("segment is closed"), http.StatusConflict, "segment is closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, req, zap.NewNop(), tt.err)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.message {
				t.Fatalf("expected %q, got %q", tt.message, body.Error)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	c := clock.NewFixed(time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC))

	h := NewSystemHandler(fakeChecker{latency: 1500 * time.Microsecond}, c, time.UTC, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Database.LatencyMS != 1.5 || body.Status != "ok" {
		t.Fatalf("unexpected body %+v", body)
	}

	h = NewSystemHandler(fakeChecker{err: errors.New("database is closed")}, c, time.UTC, zap.NewNop())
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestQueryDate(t *testing.T) {
	loc := time.FixedZone("test", 2*3600)
	req := httptest.NewRequest(http.MethodGet, "/?weekStart=2025-01-08&bad=soon", nil)

	d, err := queryDate(req, "weekStart", loc)
	if err != nil || d == nil || d.Day() != 8 || d.Location() != loc {
		t.Fatalf("unexpected date %v, %v", d, err)
	}
	if d, err := queryDate(req, "missing", loc); d != nil || err != nil {
		t.Fatalf("expected nil for absent parameter, got %v, %v", d, err)
	}
	_, err = queryDate(req, "bad", loc)
	if !apperrors.Is(err, apperrors.KindFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}
