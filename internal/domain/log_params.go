package domain

// LogParams holds parameters for log retrieval.
//
// Fields:
//   - Worker: Filter logs to a specific worker label. Empty string means all workers.
//   - Lines: Number of historical log lines to return. 0 means use server default.
//   - Pattern: Text pattern for filtering log lines. Empty string means no filtering.
//   - Regex: If true, Pattern is treated as a regular expression.
type LogParams struct {
	Worker  string
	Lines   int
	Pattern string
	Regex   bool
}

// Filter converts the params into a LogFilter
func (p LogParams) Filter() LogFilter {
	filter := LogFilter{
		Pattern: p.Pattern,
		IsRegex: p.Regex,
	}
	if p.Worker != "" {
		filter.Workers = []string{p.Worker}
	}
	return filter
}
