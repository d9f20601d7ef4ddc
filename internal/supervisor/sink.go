package supervisor

import "github.com/charliek/qrun/internal/domain"

// Sink receives worker lines. Implementations must be safe for concurrent use.
type Sink interface {
	Write(entry domain.LogEntry)
}

// Notifier prints supervisor messages that belong to no worker
type Notifier interface {
	Notice(format string, args ...any)
}

type teeSink []Sink

func (t teeSink) Write(entry domain.LogEntry) {
	for _, s := range t {
		s.Write(entry)
	}
}

// Tee returns a Sink that writes every entry to each non-nil sink in order
func Tee(sinks ...Sink) Sink {
	t := make(teeSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			t = append(t, s)
		}
	}
	return t
}
