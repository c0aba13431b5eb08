package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady reports whether templates are loaded and the backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.readyCheck == nil {
		checks["storage"] = "ok"
	} else if err := s.readyCheck(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	ledger := map[string]any{"transactions": s.ledger.Len(), "status": "ok"}
	if warn := s.ledger.LoadWarning(); warn != nil {
		ledger["status"] = "degraded"
		ledger["warning"] = warn.Error()
	}
	checks["ledger"] = ledger

	rl := s.rateLimiter.GetMetrics()
	checks["rate_limiter"] = map[string]any{
		"active_clients": rl.ClientCount,
		"status":         "ok",
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	cacheStats := s.reports.Stats()
	m := s.appMetrics

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseMicros())

	fmt.Fprintf(w, "# HELP ledger_transactions Transactions currently in the ledger\n")
	fmt.Fprintf(w, "# TYPE ledger_transactions gauge\n")
	fmt.Fprintf(w, "ledger_transactions %d\n\n", s.ledger.Len())

	fmt.Fprintf(w, "# HELP transactions_created_total Transactions recorded through the form\n")
	fmt.Fprintf(w, "# TYPE transactions_created_total counter\n")
	fmt.Fprintf(w, "transactions_created_total %d\n\n", atomic.LoadInt64(&m.transactionsCreated))

	fmt.Fprintf(w, "# HELP transaction_validation_failures_total Rejected submissions\n")
	fmt.Fprintf(w, "# TYPE transaction_validation_failures_total counter\n")
	fmt.Fprintf(w, "transaction_validation_failures_total %d\n\n", atomic.LoadInt64(&m.validationFailures))

	fmt.Fprintf(w, "# HELP transaction_save_failures_total Submissions that could not be persisted\n")
	fmt.Fprintf(w, "# TYPE transaction_save_failures_total counter\n")
	fmt.Fprintf(w, "transaction_save_failures_total %d\n\n", atomic.LoadInt64(&m.saveFailures))

	fmt.Fprintf(w, "# HELP csv_exports_total CSV downloads served\n")
	fmt.Fprintf(w, "# TYPE csv_exports_total counter\n")
	fmt.Fprintf(w, "csv_exports_total %d\n\n", atomic.LoadInt64(&m.exports))

	fmt.Fprintf(w, "# HELP report_cache_hits_total Month report cache hits\n")
	fmt.Fprintf(w, "# TYPE report_cache_hits_total counter\n")
	fmt.Fprintf(w, "report_cache_hits_total %d\n\n", cacheStats.Hits)

	fmt.Fprintf(w, "# HELP report_cache_misses_total Month report cache misses\n")
	fmt.Fprintf(w, "# TYPE report_cache_misses_total counter\n")
	fmt.Fprintf(w, "report_cache_misses_total %d\n\n", cacheStats.Misses)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rl.Rejected)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.detector.SuspiciousRequests())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rl.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(m.uptime).Seconds())
}
