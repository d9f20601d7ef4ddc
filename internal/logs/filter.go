package logs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charliek/qrun/internal/domain"
)

// MaxPatternLength is the maximum allowed length for filter patterns
const MaxPatternLength = 256

// Filter applies a LogFilter to log entries
type Filter struct {
	filter domain.LogFilter
	regex  *regexp.Regexp
}

// NewFilter compiles a LogFilter
func NewFilter(filter domain.LogFilter) (*Filter, error) {
	f := &Filter{filter: filter}

	if len(filter.Pattern) > MaxPatternLength {
		return nil, fmt.Errorf("%w: pattern exceeds maximum length of %d characters", domain.ErrInvalidPattern, MaxPatternLength)
	}

	if filter.Pattern != "" && filter.IsRegex {
		re, err := regexp.Compile(filter.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPattern, err)
		}
		f.regex = re
	}

	return f, nil
}

// Matches returns true if the entry matches the filter criteria
func (f *Filter) Matches(entry domain.LogEntry) bool {
	if !f.filter.MatchesWorker(entry.Worker) {
		return false
	}

	switch {
	case f.filter.Pattern == "":
		return true
	case f.regex != nil:
		return f.regex.MatchString(entry.Line)
	default:
		return strings.Contains(entry.Line, f.filter.Pattern)
	}
}

// FilterEntries returns the entries matching filter, keeping at most the
// last limit of them. The second result is the match count before limiting.
func FilterEntries(entries []domain.LogEntry, filter domain.LogFilter, limit int) ([]domain.LogEntry, int, error) {
	filtered := entries
	if !filter.IsEmpty() {
		f, err := NewFilter(filter)
		if err != nil {
			return nil, 0, err
		}
		filtered = make([]domain.LogEntry, 0, len(entries))
		for _, entry := range entries {
			if f.Matches(entry) {
				filtered = append(filtered, entry)
			}
		}
	}

	total := len(filtered)
	if limit > 0 && total > limit {
		filtered = filtered[total-limit:]
	}
	return filtered, total, nil
}
