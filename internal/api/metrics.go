package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/VictoriaMetrics/metrics"

	"github.com/charliek/qrun/internal/domain"
)

// Metrics counts worker output and reports worker states in Prometheus
// text format. It is a log sink, so it sees every line the console does.
type Metrics struct {
	set *metrics.Set

	linesTotal  *metrics.Counter
	systemTotal *metrics.Counter

	trackOnce sync.Once
}

// NewMetrics creates an empty metrics set
func NewMetrics() *Metrics {
	set := metrics.NewSet()
	return &Metrics{
		set:         set,
		linesTotal:  set.NewCounter(`qrun_lines_total`),
		systemTotal: set.NewCounter(`qrun_system_messages_total`),
	}
}

// Write counts one entry
func (m *Metrics) Write(entry domain.LogEntry) {
	if entry.Stream == domain.StreamSystem {
		m.systemTotal.Inc()
		return
	}
	m.linesTotal.Inc()
	m.set.GetOrCreateCounter(fmt.Sprintf(`qrun_worker_lines_total{id="%d",worker=%q}`, entry.WorkerID, entry.Worker)).Inc()
}

// TrackWorkers registers gauges computed from the worker list on every
// scrape. Only the first call has an effect.
func (m *Metrics) TrackWorkers(workers func() []domain.WorkerInfo) {
	m.trackOnce.Do(func() {
		m.set.NewGauge(`qrun_workers`, func() float64 {
			return float64(len(workers()))
		})
		m.set.NewGauge(`qrun_workers_running`, func() float64 {
			running := 0
			for _, w := range workers() {
				if !w.State.IsTerminated() {
					running++
				}
			}
			return float64(running)
		})
	})
}

// ServeHTTP writes all metrics
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	m.set.WritePrometheus(w)
}
