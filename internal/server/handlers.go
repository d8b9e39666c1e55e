package server

import (
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rshade/hostcarbon/internal/metrics"
	"github.com/rshade/hostcarbon/internal/tsdb"
)

// handleQuery runs the metrics pipeline and returns the report as JSON.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseReportRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := s.assembler.Compute(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleMetrics runs the same pipeline and renders the report as Prometheus
// exposition text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseReportRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := s.assembler.Compute(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(report.PrometheusText())); err != nil {
		s.logger.Error().Err(err).Msg("failed to write metrics response")
	}
}

// parseReportRequest maps query parameters to a pipeline request. Time
// parameters accept raw epoch seconds or ISO-8601; booleans default to the
// service's conventions (measure_power on, everything else off).
func (s *Server) parseReportRequest(r *http.Request) (metrics.Request, error) {
	q := r.URL.Query()

	req := metrics.Request{
		Location:     q.Get("location"),
		MeasurePower: true,
		Lifetime:     s.cfg.DefaultLifetime,
	}

	var err error
	if req.StartTime, err = parseTimeParam(q.Get("start_time")); err != nil {
		return metrics.Request{}, err
	}
	if req.EndTime, err = parseTimeParam(q.Get("end_time")); err != nil {
		return metrics.Request{}, err
	}
	if req.Verbose, err = parseBoolParam(q.Get("verbose"), false); err != nil {
		return metrics.Request{}, err
	}
	if req.MeasurePower, err = parseBoolParam(q.Get("measure_power"), true); err != nil {
		return metrics.Request{}, err
	}
	if req.FetchHardware, err = parseBoolParam(q.Get("fetch_hardware"), false); err != nil {
		return metrics.Request{}, err
	}
	if v := q.Get("lifetime"); v != "" {
		lifetime, err := strconv.ParseFloat(v, 64)
		if err != nil || lifetime <= 0 {
			return metrics.Request{}, errInvalidLifetime(v)
		}
		req.Lifetime = lifetime
	}
	return req, nil
}

// handleUpdate fetches the current grid carbon-intensity forecast and
// persists it as one carbonintensity record.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	point, err := s.forecast.CarbonIntensityForecast(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	ts, err := parseForecastTimestamp(point.Timestamp)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	rec := tsdb.Record{
		MetricName: "carbonintensity",
		Timestamp:  ts,
		Value:      point.Value,
	}
	if err := s.store.Insert(r.Context(), rec); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// handleCSV exports persisted metric rows in the requested window as CSV.
func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("data")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, errMissingData)
		return
	}

	since := q.Get("since")
	if since == "" {
		since = "now"
	}
	until := q.Get("until")
	if until == "" {
		until = "24h"
	}
	start, end := parseDateInfo(since, until, s.clock())
	s.logger.Debug().
		Str("data", name).
		Time("start", start).
		Time("end", end).
		Msg("csv export window resolved")

	recs, err := s.store.Select(r.Context(), name, start, end)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := tsdb.WriteCSV(w, recs); err != nil {
		s.logger.Error().Err(err).Msg("failed to write csv response")
	}
}

// infoResponse echoes the static configuration.
type infoResponse struct {
	SecondsInOneYear float64 `json:"seconds_in_one_year"`
	DefaultLifetime  float64 `json:"default_lifetime"`
	HardwareFilePath string  `json:"hardware_file_path"`
	PowerFilePath    string  `json:"power_file_path"`
	HardwareCLI      string  `json:"hardware_cli"`
	ImpactEndpoint   string  `json:"impact_endpoint"`
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, infoResponse{
		SecondsInOneYear: s.cfg.SecondsInOneYear,
		DefaultLifetime:  s.cfg.DefaultLifetime,
		HardwareFilePath: s.cfg.HardwareFilePath,
		PowerFilePath:    s.cfg.PowerFilePath,
		HardwareCLI:      s.cfg.HardwareCLI,
		ImpactEndpoint:   s.cfg.ImpactEndpoint,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Error().Err(err).Msg("failed to write health response")
	}
}

// parseForecastTimestamp accepts the forecast source's ISO timestamps.
func parseForecastTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

type httpError string

func (e httpError) Error() string { return string(e) }

const errMissingData = httpError("missing required parameter: data")

func errInvalidLifetime(v string) error {
	return httpError("invalid lifetime: " + v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
