package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"svend/internal/amqp"
	"svend/internal/core"
	"svend/internal/log"
)

// planCacheKey is the single cache slot for the latest bundle. The cache
// is keyed so invalidation and TTL logic stay shared with other entries.
const planCacheKey = "plan"

// handlePlan serves the latest recommendation bundle. ?refresh=1 bypasses
// the cache and recomputes from the current ledger.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	ctx := r.Context()
	refresh := r.URL.Query().Get("refresh") == "1"

	if !refresh {
		if bundle, found := s.planCache.Get(planCacheKey); found {
			atomic.AddInt64(&s.metrics.cacheHits, 1)
			atomic.AddInt64(&s.metrics.plansServed, 1)
			log.FromContext(ctx).DebugContext(ctx, "Plan cache hit")
			respondJSON(ctx, w, http.StatusOK, bundle)
			return
		}
		atomic.AddInt64(&s.metrics.cacheMisses, 1)
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	var (
		bundle *core.Bundle
		err    error
	)
	if refresh {
		bundle, err = s.service.Recompute(cctx)
	} else {
		bundle, err = s.service.LatestPlan(cctx)
	}
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Plan retrieval failed",
			log.FieldError, err.Error(),
			"refresh", refresh)
		respondError(ctx, w, http.StatusInternalServerError, "plan retrieval failed")
		return
	}

	s.planCache.Set(planCacheKey, bundle)
	atomic.AddInt64(&s.metrics.plansServed, 1)
	respondJSON(ctx, w, http.StatusOK, bundle)
}

// handleRecompute queues an asynchronous plan rebuild and answers with the
// request ID for correlation. Without a broker the rebuild has already run
// inline by the time the response is written.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	ctx := r.Context()
	requestID, err := s.service.RequestRecompute(ctx, amqp.ReasonManual)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Recompute request failed", log.FieldError, err.Error())
		respondError(ctx, w, http.StatusInternalServerError, "recompute request failed")
		return
	}

	// The cached plan is stale the moment a rebuild is on its way.
	s.planCache.Delete(planCacheKey)

	log.FromContext(ctx).InfoContext(ctx, "Recompute requested",
		log.FieldReason, amqp.ReasonManual,
		"recompute_request_id", requestID)
	respondJSON(ctx, w, http.StatusAccepted, map[string]string{
		"status":     "accepted",
		"request_id": requestID,
	})
}

// handleTaxonomy returns the category groups used to classify transactions.
func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	ctx := r.Context()
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	taxonomy, err := s.service.Taxonomy(cctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Taxonomy read failed", log.FieldError, err.Error())
		respondError(ctx, w, http.StatusInternalServerError, "taxonomy read failed")
		return
	}

	respondJSON(ctx, w, http.StatusOK, taxonomy)
}
