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
	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).String(),
	})
}

// handleReady performs a readiness check with dependency verification.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.service == nil {
		checks["storage"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, err := s.service.ListTransactions(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["plan_cache"] = map[string]any{
		"entries": s.planCache.Size(),
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	respondJSON(r.Context(), w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics exposes application counters in plain text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMW.GetMetrics()
	plansServed := atomic.LoadInt64(&s.metrics.plansServed)
	transactions := atomic.LoadInt64(&s.metrics.transactions)
	goals := atomic.LoadInt64(&s.metrics.goals)
	cacheHits := atomic.LoadInt64(&s.metrics.cacheHits)
	cacheMisses := atomic.LoadInt64(&s.metrics.cacheMisses)
	uptime := time.Since(s.metrics.startedAt)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP plans_served_total Plan responses served\n")
	fmt.Fprintf(w, "# TYPE plans_served_total counter\n")
	fmt.Fprintf(w, "plans_served_total %d\n\n", plansServed)

	fmt.Fprintf(w, "# HELP transactions_created_total Transactions created over the API\n")
	fmt.Fprintf(w, "# TYPE transactions_created_total counter\n")
	fmt.Fprintf(w, "transactions_created_total %d\n\n", transactions)

	fmt.Fprintf(w, "# HELP goals_created_total Goals created over the API\n")
	fmt.Fprintf(w, "# TYPE goals_created_total counter\n")
	fmt.Fprintf(w, "goals_created_total %d\n\n", goals)

	fmt.Fprintf(w, "# HELP plan_cache_hits_total Plan cache hits\n")
	fmt.Fprintf(w, "# TYPE plan_cache_hits_total counter\n")
	fmt.Fprintf(w, "plan_cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP plan_cache_misses_total Plan cache misses\n")
	fmt.Fprintf(w, "# TYPE plan_cache_misses_total counter\n")
	fmt.Fprintf(w, "plan_cache_misses_total %d\n\n", cacheMisses)

	fmt.Fprintf(w, "# HELP plan_cache_entries Current plan cache entries\n")
	fmt.Fprintf(w, "# TYPE plan_cache_entries gauge\n")
	fmt.Fprintf(w, "plan_cache_entries %d\n\n", s.planCache.Size())

	fmt.Fprintf(w, "# HELP rate_limited_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limited_total counter\n")
	fmt.Fprintf(w, "rate_limited_total %d\n\n", s.rateLimiter.Rejected())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}
