// Package server exposes the metrics pipeline over HTTP: the /query and
// /metrics report routes, the /update and /csv persistence routes, and the
// static info/web surface.
package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rshade/hostcarbon/internal/config"
	"github.com/rshade/hostcarbon/internal/impact"
	"github.com/rshade/hostcarbon/internal/metrics"
	"github.com/rshade/hostcarbon/internal/tsdb"
)

// Server wires the HTTP routes to the pipeline components.
type Server struct {
	cfg       config.Config
	assembler *metrics.Assembler
	forecast  impact.ForecastClient
	store     tsdb.Store
	logger    zerolog.Logger
	telemetry *telemetry
	clock     func() time.Time
}

// New creates a Server. The assembler runs the core pipeline; forecast and
// store back the auxiliary /update and /csv routes.
func New(
	cfg config.Config,
	assembler *metrics.Assembler,
	forecast impact.ForecastClient,
	store tsdb.Store,
	logger zerolog.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		assembler: assembler,
		forecast:  forecast,
		store:     store,
		logger:    logger,
		telemetry: newTelemetry(),
		clock:     time.Now,
	}
}

// WithClock overrides the server's clock. Tests only.
func (s *Server) WithClock(clock func() time.Time) *Server {
	s.clock = clock
	return s
}

// Handler returns the fully assembled HTTP handler: routes, request-ID and
// logging middleware, telemetry instrumentation and CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/query", s.handleQuery).Methods(http.MethodGet)
	router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	router.HandleFunc("/update", s.handleUpdate).Methods(http.MethodGet)
	router.HandleFunc("/csv", s.handleCSV).Methods(http.MethodGet)
	router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	router.HandleFunc("/web", s.handleWeb).Methods(http.MethodGet)
	router.PathPrefix("/assets/").Handler(s.assetsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/telemetry", s.telemetry.handler()).Methods(http.MethodGet)

	router.Use(s.requestLogging)

	allowedOrigins := s.cfg.CORSAllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	})
	return c.Handler(router)
}

// statusRecorder captures the response code for logging and telemetry.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogging tags every request with a request_id, logs its outcome and
// feeds the telemetry counters.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.telemetry.observe(r.URL.Path, rec.status, elapsed)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("request handled")
	})
}
