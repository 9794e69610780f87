package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"svend/internal/cache"
	"svend/internal/core"
	"svend/internal/log"
	"svend/internal/middleware/ratelimit"
	"svend/internal/middleware/security"
	"svend/internal/middleware/trace"
)

// PlanService is the service surface the HTTP layer depends on.
type PlanService interface {
	LatestPlan(ctx context.Context) (*core.Bundle, error)
	Recompute(ctx context.Context) (*core.Bundle, error)
	RequestRecompute(ctx context.Context, reason string) (string, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	CreateGoal(ctx context.Context, goal core.Goal) (core.Goal, []core.MonthlyAllocation, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	GoalSchedule(ctx context.Context, goalID string) ([]core.MonthlyAllocation, error)
	Taxonomy(ctx context.Context) (core.Taxonomy, error)
}

// Config tunes the HTTP server. Zero values fall back to defaults.
type Config struct {
	Addr           string
	PlanCacheSize  int
	PlanCacheTTL   time.Duration
	WriteRateLimit int // mutating requests per client per minute
}

// appMetrics tracks process counters surfaced by /metrics.
type appMetrics struct {
	plansServed  int64
	transactions int64
	goals        int64
	cacheHits    int64
	cacheMisses  int64
	startedAt    time.Time
}

// Server wires the API handlers, middleware pipeline and plan cache
// around an embedded http.Server.
type Server struct {
	http.Server

	service PlanService
	logger  *log.Logger

	planCache    *cache.LRUCache[*core.Bundle]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	traceMW      *trace.Middleware

	metrics      appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and the middleware pipeline, returning a
// ready-to-run server.
func NewServer(cfg Config, service PlanService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if cfg.PlanCacheSize <= 0 {
		cfg.PlanCacheSize = 16
	}
	if cfg.PlanCacheTTL <= 0 {
		cfg.PlanCacheTTL = 5 * time.Minute
	}
	if cfg.WriteRateLimit <= 0 {
		cfg.WriteRateLimit = 60
	}

	mux := http.NewServeMux()
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr: cfg.Addr,
		},
		service:      service,
		logger:       logger,
		planCache:    cache.NewLRUCache[*core.Bundle](cfg.PlanCacheSize, cfg.PlanCacheTTL),
		cacheManager: cache.NewManager(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.WriteRateLimit,
			CleanupInterval:   5 * time.Minute,
		}),
		detector: detector,
		traceMW:  trace.NewMiddleware(detector.ExtractClientIP),
		metrics:  appMetrics{startedAt: time.Now()},
	}

	s.cacheManager.Register(s.planCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/api/plan", s.handlePlan)
	mux.HandleFunc("/api/recompute", s.handleRecompute)
	mux.HandleFunc("/api/taxonomy", s.handleTaxonomy)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/goals", s.handleGoals)
	mux.HandleFunc("/api/goals/", s.handleGoalByID)

	s.Server.Handler = s.pipeline(mux)
	return s
}

// pipeline wraps the mux with the cross-cutting request middleware. The
// trace middleware runs outermost so everything downstream sees the
// request ID.
func (s *Server) pipeline(mux http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	handler := s.limitWrites(mux)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = log.Middleware(s.logger)(handler)
	handler = s.traceMW.Middleware(handler)
	return handler
}

// limitWrites applies the rate limiter to mutating methods only; reads
// stay unthrottled.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// Shutdown stops the cache and rate limiter cleanup goroutines, then
// drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()

		metrics := s.traceMW.GetMetrics()
		s.logger.Info("HTTP server stopping",
			"requests_served", metrics.TotalRequests,
			"avg_response_us", metrics.AverageResponseTime,
			"rate_limited", s.rateLimiter.Rejected())

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
