package api

import (
	"time"

	"github.com/charliek/qrun/internal/domain"
)

// StatusResponse represents the response for GET /status
type StatusResponse struct {
	Status        string           `json:"status"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Workers       int              `json:"workers"`
	ShuttingDown  bool             `json:"shutting_down"`
	APIVersion    string           `json:"api_version"`
	Logs          LogStatsResponse `json:"logs"`
}

// LogStatsResponse describes the in-memory log buffer. Written keeps
// counting after the buffer starts overwriting old entries.
type LogStatsResponse struct {
	Entries     int    `json:"entries"`
	Capacity    int    `json:"capacity"`
	Written     uint64 `json:"written"`
	Subscribers int    `json:"subscribers"`
}

// WorkerListResponse represents the response for GET /workers
type WorkerListResponse struct {
	Workers []WorkerResponse `json:"workers"`
}

// WorkerResponse represents a single worker in responses
type WorkerResponse struct {
	ID            int    `json:"id"`
	Label         string `json:"label"`
	State         string `json:"state"`
	PID           int    `json:"pid"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Lines         int64  `json:"lines"`
	Cmd           string `json:"cmd"`
}

// LogsResponse represents the response for GET /logs
type LogsResponse struct {
	Logs          []LogEntryResponse `json:"logs"`
	FilteredCount int                `json:"filtered_count"`
	TotalCount    int                `json:"total_count"`
}

// LogEntryResponse represents a single log entry
type LogEntryResponse struct {
	Timestamp string `json:"timestamp"`
	WorkerID  int    `json:"worker_id"`
	Worker    string `json:"worker"`
	Stream    string `json:"stream"`
	Line      string `json:"line"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToLogStatsResponse converts domain.LogStats to LogStatsResponse
func ToLogStatsResponse(stats domain.LogStats) LogStatsResponse {
	return LogStatsResponse{
		Entries:     stats.TotalEntries,
		Capacity:    stats.BufferSize,
		Written:     stats.Written,
		Subscribers: stats.Subscribers,
	}
}

// ToWorkerResponse converts domain.WorkerInfo to WorkerResponse.
// Uptime stops counting once the worker has terminated.
func ToWorkerResponse(info domain.WorkerInfo) WorkerResponse {
	resp := WorkerResponse{
		ID:    info.ID,
		Label: info.Label,
		State: info.State.String(),
		PID:   info.PID,
		Lines: info.Lines,
		Cmd:   info.Cmd,
	}
	if !info.State.IsTerminated() {
		resp.UptimeSeconds = info.UptimeSeconds()
	}
	return resp
}

// ToLogEntryResponse converts domain.LogEntry to LogEntryResponse
func ToLogEntryResponse(entry domain.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
		WorkerID:  entry.WorkerID,
		Worker:    entry.Worker,
		Stream:    entry.Stream.String(),
		Line:      entry.Line,
	}
}
