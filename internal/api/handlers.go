package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
	"github.com/charliek/qrun/internal/logs"
	"github.com/charliek/qrun/internal/supervisor"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	supervisor *supervisor.Supervisor
	logManager *logs.Manager
	shutdownFn func()

	shutdownRequested atomic.Bool
}

// NewHandlers creates new HTTP handlers. shutdownFn is called once a
// shutdown request has been answered.
func NewHandlers(sup *supervisor.Supervisor, logMgr *logs.Manager, shutdownFn func()) *Handlers {
	return &Handlers{
		supervisor: sup,
		logManager: logMgr,
		shutdownFn: shutdownFn,
	}
}

// GetStatus handles GET /api/v1/status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.supervisor.Status()

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:        status.State,
		UptimeSeconds: status.UptimeSeconds(),
		Workers:       status.Workers,
		ShuttingDown:  h.supervisor.Shutdown().Fired(),
		APIVersion:    "v1",
		Logs:          ToLogStatsResponse(h.logManager.Stats()),
	})
}

// GetWorkers handles GET /api/v1/workers
func (h *Handlers) GetWorkers(w http.ResponseWriter, r *http.Request) {
	workers := h.supervisor.Workers()

	resp := WorkerListResponse{
		Workers: make([]WorkerResponse, len(workers)),
	}
	for i, info := range workers {
		resp.Workers[i] = ToWorkerResponse(info)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetWorker handles GET /api/v1/workers/{id}
func (h *Handlers) GetWorker(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "worker id must be a number",
			Code:  "INVALID_ID",
		})
		return
	}

	for _, info := range h.supervisor.Workers() {
		if info.ID == id {
			writeJSON(w, http.StatusOK, ToWorkerResponse(info))
			return
		}
	}

	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error: "worker not found",
		Code:  "WORKER_NOT_FOUND",
	})
}

// GetLogs handles GET /api/v1/logs
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	params := parseLogParams(r)

	entries, total, err := h.logManager.Query(params.Filter(), params.Lines)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := LogsResponse{
		Logs:          make([]LogEntryResponse, len(entries)),
		FilteredCount: len(entries),
		TotalCount:    total,
	}
	for i, e := range entries {
		resp.Logs[i] = ToLogEntryResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Shutdown handles POST /api/v1/shutdown.
// It answers first and then stops the workers in the background.
func (h *Handlers) Shutdown(w http.ResponseWriter, r *http.Request) {
	// Shutdown fires only once shutdownFn has run, so an accepted request
	// that has not fired yet also counts.
	if h.supervisor.Shutdown().Fired() || !h.shutdownRequested.CompareAndSwap(false, true) {
		writeError(w, domain.ErrShutdownStarted)
		return
	}

	writeJSON(w, http.StatusAccepted, SuccessResponse{Success: true})

	if h.shutdownFn != nil {
		go h.shutdownFn()
	}
}

// parseLogParams extracts log filter parameters from the query string
func parseLogParams(r *http.Request) domain.LogParams {
	q := r.URL.Query()

	params := domain.LogParams{
		Worker:  q.Get("worker"),
		Pattern: q.Get("pattern"),
		Regex:   q.Get("regex") == "true",
		Lines:   constants.DefaultLogLimit,
	}

	// Capped to keep a single request from copying the whole buffer repeatedly
	if linesStr := q.Get("lines"); linesStr != "" {
		if l, err := strconv.Atoi(linesStr); err == nil && l > 0 {
			params.Lines = min(l, constants.MaxLogLines)
		}
	}

	return params
}

// workerFilter builds the worker label filter for streaming, which accepts
// a comma separated list
func workerFilter(r *http.Request) domain.LogFilter {
	q := r.URL.Query()
	filter := domain.LogFilter{
		Pattern: q.Get("pattern"),
		IsRegex: q.Get("regex") == "true",
	}
	if workers := q.Get("worker"); workers != "" {
		filter.Workers = strings.Split(workers, ",")
	}
	return filter
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrInvalidPattern):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrShutdownStarted):
		status = http.StatusConflict
		message = err.Error()
	default:
		// Keep internal details out of the response
		log.Printf("Internal error: %v", err)
	}

	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  domain.ErrorCode(err),
	})
}
