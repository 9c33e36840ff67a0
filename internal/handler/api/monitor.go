package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"HemoWatch/internal/service/metrics"
	"HemoWatch/internal/service/ratelimit"
	"HemoWatch/internal/usecase"
	applogger "HemoWatch/pkg/logger"
)

// MonitorHandler serves the drift report and detector state over plain
// net/http. The report itself is cached inside the usecase.
type MonitorHandler struct {
	drift   *usecase.DriftReportUseCase
	monitor *usecase.MonitorUseCase
	rl      *ratelimit.Limiter
	l       *applogger.Logger
}

func NewMonitorHandler(drift *usecase.DriftReportUseCase, monitor *usecase.MonitorUseCase) *MonitorHandler {
	metrics.Register()
	return &MonitorHandler{drift: drift, monitor: monitor, rl: ratelimit.New()}
}

// SetLogger injects a structured logger.
func (h *MonitorHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *MonitorHandler) Drift() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "drift"
		defer func() { metrics.MonitorLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		patient := r.URL.Query().Get("patient")
		if patient == "" {
			if h.l != nil {
				h.l.Warn("monitor.drift missing patient")
			}
			http.Error(w, "patient required", http.StatusBadRequest)
			return
		}
		n := parseInt(r.URL.Query().Get("n"), 1000)
		if !h.rl.Allow(r.RemoteAddr+":drift", 5, 2) {
			if h.l != nil {
				h.l.Warn("monitor.drift rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		res, err := h.drift.GetReport(r.Context(), usecase.GetDriftParams{PatientID: patient, N: n})
		if err != nil {
			metrics.MonitorErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("monitor.drift error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("monitor.drift marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("monitor.drift write_error", applogger.Error(err))
		}
	}
}

func (h *MonitorHandler) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "state"
		defer func() { metrics.MonitorLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		patient := r.URL.Query().Get("patient")
		if patient == "" {
			if h.l != nil {
				h.l.Warn("monitor.state missing patient")
			}
			http.Error(w, "patient required", http.StatusBadRequest)
			return
		}
		if !h.rl.Allow(r.RemoteAddr+":state", 10, 5) {
			if h.l != nil {
				h.l.Warn("monitor.state rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		st, ok, err := h.monitor.DetectorState(r.Context(), patient)
		if err != nil {
			metrics.MonitorErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("monitor.state error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "no state for patient", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(st)
		if err != nil {
			if h.l != nil {
				h.l.Error("monitor.state marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("monitor.state write_error", applogger.Error(err))
		}
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
