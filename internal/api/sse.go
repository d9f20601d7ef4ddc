package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// keepAliveInterval is how often an idle stream gets a comment line, so
// that quiet workers do not look like a dead connection
var keepAliveInterval = constants.SSEKeepAliveInterval

// StreamLogs handles GET /api/v1/logs/stream.
//
// Query parameters match GET /logs, except that worker takes a comma
// separated list and tail replays that many recent entries before live
// ones. Each entry is one "data:" event holding a LogEntryResponse.
func (h *Handlers) StreamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	history, subID, ch, err := h.logManager.Follow(workerFilter(r), tailParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	defer h.logManager.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, ": connected\n\n")
	for _, entry := range history {
		if err := writeEvent(w, entry); err != nil {
			return
		}
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	// Slow clients lose entries at the subscription buffer rather than
	// holding up the workers. The stream ends when the client goes away or
	// the log manager is closed at shutdown.
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case entry, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, entry); err != nil {
				log.Printf("SSE write error (client likely disconnected): %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one entry as a data event
func writeEvent(w http.ResponseWriter, entry domain.LogEntry) error {
	data, err := json.Marshal(ToLogEntryResponse(entry))
	if err != nil {
		return nil
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// tailParam reads ?tail=N, capped like ?lines
func tailParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("tail"))
	if err != nil || n < 0 {
		return 0
	}
	return min(n, constants.MaxLogLines)
}
