package router

import (
	"net/http"

	"Mansoor88-6/schedule-tracker/internal/handler"
	"Mansoor88-6/schedule-tracker/internal/middleware"

	"go.uber.org/zap"
)

type Handlers struct {
	Activities *handler.ActivityHandler
	Segments   *handler.SegmentHandler
	Logs       *handler.TimeLogHandler
	Reports    *handler.ReportHandler
	System     *handler.SystemHandler
}

type Options struct {
	Tokens *middleware.Tokens
	// Limiter is nil when rate limiting is disabled.
	Limiter        *middleware.LimiterStore
	AllowedOrigins []string
	Logger         *zap.Logger
}

func New(h Handlers, opts Options) http.Handler {
	api := http.NewServeMux()

	api.Handle("/api/v1/activities", h.Activities)
	api.Handle("/api/v1/schedule/segments", h.Segments)
	api.HandleFunc("/api/v1/segments/usage", h.Reports.Usage)
	api.HandleFunc("/api/v1/dashboard", h.Reports.Dashboard)

	api.Handle("/api/v1/logs", h.Logs)
	api.HandleFunc("/api/v1/logs/start", h.Logs.Start)
	api.HandleFunc("/api/v1/logs/terminate", h.Logs.Terminate)
	api.HandleFunc("/api/v1/logs/current", h.Logs.Current)

	api.HandleFunc("/api/v1/time", h.System.Time)
	api.HandleFunc("/", handler.NotFound)

	// Every /api/ route requires a token.
	var protected http.Handler = middleware.Auth(opts.Tokens, opts.Logger)(api)
	if opts.Limiter != nil {
		protected = middleware.RateLimit(opts.Limiter, middleware.ClientIP)(protected)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.System.Health)
	mux.Handle("/api/", protected)
	mux.HandleFunc("/", handler.NotFound)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recovery(opts.Logger),
		middleware.AccessLog(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)
}
