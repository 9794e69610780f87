package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"svend/internal/core"
	"svend/internal/log"
	"svend/internal/storage"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testBundle() *core.Bundle {
	return &core.Bundle{
		Spending:     map[core.Scenario]core.SpendingPlan{core.ScenarioBalanced: {}},
		Goals:        map[core.Scenario]map[string][]core.MonthlyAllocation{},
		Ratios:       map[core.Scenario]core.ScenarioRatios{},
		SurvivalMode: false,
		ComputedAt:   time.Now(),
	}
}

// stubService is an in-memory PlanService for handler tests.
type stubService struct {
	bundle  *core.Bundle
	planErr error

	latestCalls    int
	recomputeCalls int

	requestID  string
	requestErr error
	reasons    []string

	transactions []core.Transaction
	listTxErr    error
	createTxErr  error

	goals       []core.Goal
	listGoalErr error

	schedules map[string][]core.MonthlyAllocation
}

var _ PlanService = (*stubService)(nil)

func (s *stubService) LatestPlan(ctx context.Context) (*core.Bundle, error) {
	s.latestCalls++
	return s.bundle, s.planErr
}

func (s *stubService) Recompute(ctx context.Context) (*core.Bundle, error) {
	s.recomputeCalls++
	return s.bundle, s.planErr
}

func (s *stubService) RequestRecompute(ctx context.Context, reason string) (string, error) {
	if s.requestErr != nil {
		return "", s.requestErr
	}
	s.reasons = append(s.reasons, reason)
	return s.requestID, nil
}

func (s *stubService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if s.createTxErr != nil {
		return core.Transaction{}, s.createTxErr
	}
	if t.ID == "" {
		t.ID = fmt.Sprintf("tx-%d", len(s.transactions)+1)
	}
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *stubService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.transactions, s.listTxErr
}

func (s *stubService) DeleteTransaction(ctx context.Context, id string) error {
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
}

func (s *stubService) CreateGoal(ctx context.Context, goal core.Goal) (core.Goal, []core.MonthlyAllocation, error) {
	goal.ID = fmt.Sprintf("goal-%d", len(s.goals)+1)
	schedule := []core.MonthlyAllocation{{Date: core.NewDate(2025, 9, 1), Planned: d("1000")}}
	s.goals = append(s.goals, goal)
	if s.schedules == nil {
		s.schedules = make(map[string][]core.MonthlyAllocation)
	}
	s.schedules[goal.ID] = schedule
	return goal, schedule, nil
}

func (s *stubService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return s.goals, s.listGoalErr
}

func (s *stubService) DeleteGoal(ctx context.Context, id string) error {
	for i, g := range s.goals {
		if g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("goal %s: %w", id, storage.ErrNotFound)
}

func (s *stubService) GoalSchedule(ctx context.Context, goalID string) ([]core.MonthlyAllocation, error) {
	if schedule, ok := s.schedules[goalID]; ok {
		return schedule, nil
	}
	return nil, fmt.Errorf("goal %s: %w", goalID, storage.ErrNotFound)
}

func (s *stubService) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	return core.DefaultTaxonomy(), nil
}

func newTestServer(t *testing.T, cfg Config, svc PlanService) *Server {
	t.Helper()
	srv := NewServer(cfg, svc, log.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doRequest(srv *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Config{}, &stubService{bundle: testBundle()})

	rr := doRequest(srv, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("/healthz body = %s", rr.Body.String())
	}

	rr = doRequest(srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("/readyz status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"storage":"ok"`) {
		t.Errorf("/readyz body = %s", rr.Body.String())
	}
}

func TestReadyReportsStorageFailure(t *testing.T) {
	svc := &stubService{bundle: testBundle(), listTxErr: fmt.Errorf("database gone")}
	srv := newTestServer(t, Config{}, svc)

	rr := doRequest(srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_ready") {
		t.Errorf("/readyz body = %s", rr.Body.String())
	}
}

func TestReadyWithoutService(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rr := doRequest(srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_configured") {
		t.Errorf("/readyz body = %s", rr.Body.String())
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t, Config{}, &stubService{bundle: testBundle()})

	rr := doRequest(srv, http.MethodGet, "/healthz", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rr.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'none'") {
		t.Errorf("Content-Security-Policy = %q", got)
	}
}

func TestWriteRateLimitAppliesToMutations(t *testing.T) {
	svc := &stubService{bundle: testBundle(), requestID: "req-1"}
	srv := newTestServer(t, Config{WriteRateLimit: 1}, svc)

	if rr := doRequest(srv, http.MethodPost, "/api/recompute", nil); rr.Code != http.StatusAccepted {
		t.Fatalf("first POST status = %d, want 202", rr.Code)
	}

	rr := doRequest(srv, http.MethodPost, "/api/recompute", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}

	// Reads stay unthrottled.
	if rr := doRequest(srv, http.MethodGet, "/api/plan", nil); rr.Code != http.StatusOK {
		t.Fatalf("GET after limit status = %d, want 200", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, Config{}, &stubService{bundle: testBundle()})

	doRequest(srv, http.MethodGet, "/api/plan", nil)

	rr := doRequest(srv, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"http_requests_total",
		"plans_served_total 1",
		"plan_cache_entries 1",
		"rate_limited_total 0",
		"uptime_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("/metrics body missing %q", metric)
		}
	}
}

func TestShutdownIdempotent(t *testing.T) {
	srv := NewServer(Config{}, &stubService{bundle: testBundle()}, log.Nop())

	ctx := context.Background()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
