package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"svend/internal/core"
	"svend/internal/log"
	"svend/internal/storage"
)

// goalRequest is the JSON body for creating a goal. MonthlyAmount is
// optional; when absent the initial schedule derives it from the target
// date.
type goalRequest struct {
	Name            string          `json:"name"`
	Kind            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	TargetDate      string          `json:"targetDate"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
	MonthlyAmount   decimal.Decimal `json:"monthlyAmount"`
	DebtComponent   string          `json:"debtComponent"`
}

// goalResponse pairs a stored goal with its baseline schedule.
type goalResponse struct {
	Goal     core.Goal                `json:"goal"`
	Schedule []core.MonthlyAllocation `json:"schedule"`
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listGoals(w, r)
	case http.MethodPost:
		s.createGoal(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	goals, err := s.service.ListGoals(cctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Goal list failed", log.FieldError, err.Error())
		respondError(ctx, w, http.StatusInternalServerError, "goal list failed")
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}

	respondJSON(ctx, w, http.StatusOK, goals)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	targetDate, err := core.ParseDate(req.TargetDate)
	if err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, "invalid target date, want YYYY-MM-DD")
		return
	}

	goal := core.Goal{
		Name:            sanitizeInput(req.Name),
		Kind:            core.GoalKind(req.Kind),
		Amount:          req.Amount,
		TargetDate:      targetDate,
		StartingBalance: req.StartingBalance,
		MonthlyAmount:   req.MonthlyAmount,
		DebtComponent:   core.DebtComponent(req.DebtComponent),
	}
	if err := goal.Validate(); err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	created, schedule, err := s.service.CreateGoal(cctx, goal)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Goal create failed",
			log.FieldError, err.Error(),
			log.FieldGoalName, goal.Name)
		respondError(ctx, w, http.StatusInternalServerError, "goal create failed")
		return
	}

	atomic.AddInt64(&s.metrics.goals, 1)
	s.planCache.Delete(planCacheKey)

	log.FromContext(ctx).InfoContext(ctx, "Goal created",
		log.FieldGoalID, created.ID,
		log.FieldGoalName, created.Name,
		log.FieldMonths, len(schedule))
	respondJSON(ctx, w, http.StatusCreated, goalResponse{Goal: created, Schedule: schedule})
}

// handleGoalByID routes /api/goals/{id} and /api/goals/{id}/schedule.
func (s *Server) handleGoalByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	id, sub := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		id, sub = rest[:i], rest[i+1:]
	}

	if id == "" {
		respondError(r.Context(), w, http.StatusBadRequest, "missing goal id")
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodDelete:
		s.deleteGoal(w, r, id)
	case sub == "schedule" && r.Method == http.MethodGet:
		s.goalSchedule(w, r, id)
	case sub == "":
		methodNotAllowed(w, "DELETE")
	case sub == "schedule":
		methodNotAllowed(w, "GET")
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	if err := s.service.DeleteGoal(cctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "goal not found")
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Goal delete failed",
			log.FieldError, err.Error(),
			log.FieldGoalID, id)
		respondError(ctx, w, http.StatusInternalServerError, "goal delete failed")
		return
	}

	s.planCache.Delete(planCacheKey)
	log.FromContext(ctx).InfoContext(ctx, "Goal deleted", log.FieldGoalID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) goalSchedule(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	schedule, err := s.service.GoalSchedule(cctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "goal not found")
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Goal schedule read failed",
			log.FieldError, err.Error(),
			log.FieldGoalID, id)
		respondError(ctx, w, http.StatusInternalServerError, "goal schedule read failed")
		return
	}
	if schedule == nil {
		schedule = []core.MonthlyAllocation{}
	}

	respondJSON(ctx, w, http.StatusOK, schedule)
}
