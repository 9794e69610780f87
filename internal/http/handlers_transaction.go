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

// transactionRequest is the JSON body for creating a transaction. Income
// is recorded with a negative amount.
type transactionRequest struct {
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	transactions, err := s.service.ListTransactions(cctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Transaction list failed", log.FieldError, err.Error())
		respondError(ctx, w, http.StatusInternalServerError, "transaction list failed")
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}

	respondJSON(ctx, w, http.StatusOK, transactions)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
		return
	}

	t := core.Transaction{
		Date:     date,
		Amount:   req.Amount,
		Category: sanitizeInput(req.Category),
	}
	if err := t.Validate(); err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	created, err := s.service.CreateTransaction(cctx, t)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Transaction create failed",
			log.FieldError, err.Error(),
			log.FieldCategory, t.Category)
		respondError(ctx, w, http.StatusInternalServerError, "transaction create failed")
		return
	}

	atomic.AddInt64(&s.metrics.transactions, 1)
	s.planCache.Delete(planCacheKey)

	log.FromContext(ctx).InfoContext(ctx, "Transaction created",
		log.FieldTransactionID, created.ID,
		log.FieldCategory, created.Category,
		log.FieldAmount, created.Amount.String())
	respondJSON(ctx, w, http.StatusCreated, created)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	ctx := r.Context()
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		respondError(ctx, w, http.StatusBadRequest, "missing transaction id")
		return
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	if err := s.service.DeleteTransaction(cctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "transaction not found")
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Transaction delete failed",
			log.FieldError, err.Error(),
			log.FieldTransactionID, id)
		respondError(ctx, w, http.StatusInternalServerError, "transaction delete failed")
		return
	}

	s.planCache.Delete(planCacheKey)
	log.FromContext(ctx).InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id)
	w.WriteHeader(http.StatusNoContent)
}
