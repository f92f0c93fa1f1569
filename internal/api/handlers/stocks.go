package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stocknote/stocknote/internal/api/middleware"
	"github.com/stocknote/stocknote/internal/jobs"
	"github.com/stocknote/stocknote/internal/stocks"
)

// StocksHandler handles stock-directory endpoints.
type StocksHandler struct {
	searcher  *stocks.Searcher
	publisher jobs.Publisher
	jobStore  jobs.JobStore
	log       zerolog.Logger
}

// NewStocksHandler creates a new stocks handler.
func NewStocksHandler(searcher *stocks.Searcher, publisher jobs.Publisher, jobStore jobs.JobStore, log zerolog.Logger) *StocksHandler {
	return &StocksHandler{
		searcher:  searcher,
		publisher: publisher,
		jobStore:  jobStore,
		log:       log,
	}
}

// Search handles GET /api/stocks/search?q=...
func (h *StocksHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	listing, err := h.searcher.Search(ctx, query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("Stock search failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stocks":  listing,
		"count":   len(listing),
	})
}

// EnqueueSync handles POST /api/admin/stocks/sync
//
// The sync itself runs on the background worker; the response carries the job
// id for status polling.
func (h *StocksHandler) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	market := r.URL.Query().Get("market")
	switch market {
	case "krx", "us":
	default:
		middleware.WriteError(w, http.StatusBadRequest, "market must be \"krx\" or \"us\"")
		return
	}

	job := &jobs.SyncStocksJob{
		JobID:      uuid.NewString(),
		Market:     market,
		Status:     jobs.JobStatusPending,
		CreatedAt:  time.Now(),
		MaxRetries: 3,
	}

	if err := h.publisher.PublishSyncStocks(ctx, job); err != nil {
		h.log.Error().Err(err).Str("market", market).Msg("Failed to enqueue stock sync")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"job_id":  job.JobID,
		"market":  market,
	})
}

// GetSyncJob handles GET /api/admin/stocks/sync/{jobID}
func (h *StocksHandler) GetSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID := chi.URLParam(r, "jobID")
	job, err := h.jobStore.GetJob(ctx, jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"job":     job,
	})
}

// ListSyncJobs handles GET /api/admin/stocks/sync
func (h *StocksHandler) ListSyncJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := jobs.JobFilter{
		Market: r.URL.Query().Get("market"),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	list, err := h.jobStore.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list sync jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"jobs":    list,
		"count":   len(list),
	})
}
