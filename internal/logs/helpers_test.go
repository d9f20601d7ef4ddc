package logs

import (
	"time"

	"github.com/charliek/qrun/internal/domain"
)

func makeEntry(line string) domain.LogEntry {
	return makeEntryFor(1, "default", line)
}

func makeEntryFor(id int, worker, line string) domain.LogEntry {
	return domain.LogEntry{
		Timestamp: time.Now(),
		WorkerID:  id,
		Worker:    worker,
		Stream:    domain.StreamStdout,
		Line:      line,
	}
}
