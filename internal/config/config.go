// Package config turns command-line input into the ordered list of workers
// a run launches.
package config

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// Options holds everything that shapes a worker invocation
type Options struct {
	// Count is the number of unnamed workers in count form. Zero means unset.
	Count int `yaml:"count,omitempty" json:"count,omitempty"`
	// NoHerd invokes Program directly instead of through Shim
	NoHerd bool `yaml:"no_herd" json:"no_herd"`
	// UseWork selects queue:work instead of queue:listen
	UseWork bool `yaml:"use_work" json:"use_work"`
	// Timeout is forwarded as --timeout when it differs from the default
	Timeout int  `yaml:"timeout" json:"timeout"`
	Verbose bool `yaml:"verbose" json:"verbose"`

	Program    string `yaml:"program" json:"program"`
	Entrypoint string `yaml:"entrypoint" json:"entrypoint"`
	Shim       string `yaml:"shim" json:"shim"`

	// EnvFile is a dotenv file merged into every worker's environment
	EnvFile string `yaml:"env_file,omitempty" json:"env_file,omitempty"`
	// Grace is how long a worker gets to exit after SIGTERM before SIGKILL.
	// Zero kills immediately.
	Grace time.Duration `yaml:"grace" json:"grace"`
}

// DefaultOptions returns the options used when no flags are given
func DefaultOptions() Options {
	return Options{
		Timeout:    constants.DefaultTimeout,
		Program:    constants.DefaultProgram,
		Entrypoint: constants.DefaultEntrypoint,
		Shim:       constants.DefaultShim,
	}
}

// Subcommand returns the artisan command the workers run
func (o Options) Subcommand() string {
	if o.UseWork {
		return constants.WorkSubcommand
	}
	return constants.ListenSubcommand
}

// Invocation builds the program and arguments for one worker.
// An empty queue omits --queue.
func (o Options) Invocation(queue string) (string, []string) {
	var base []string
	if o.Entrypoint != "" {
		base = append(base, o.Entrypoint)
	}
	base = append(base, o.Subcommand())

	program := o.Program
	args := base
	if !o.NoHerd {
		program = o.Shim
		args = append([]string{o.Program}, base...)
	}

	if queue != "" {
		args = append(args, "--queue", queue)
	}
	if o.Timeout != constants.DefaultTimeout {
		args = append(args, "--timeout", strconv.Itoa(o.Timeout))
	}
	if o.Verbose {
		args = append(args, constants.VerboseFlag)
	}

	return program, args
}

// queueGroup is one (name, count) pair before ids are assigned
type queueGroup struct {
	name  string
	count int
}

// Resolve expands the positional queue tokens into worker specs.
//
// Tokens are read as name/count pairs; a trailing name without a count
// gets one worker. Without tokens, opts.Count unnamed workers are
// produced, and without either a single "default" queue with two
// workers. Counts that do not parse or are below one become one. Ids run
// from 1 across all queues in declaration order.
func Resolve(opts Options, tokens []string) []domain.WorkerSpec {
	groups := parseQueues(tokens)

	if len(groups) == 0 && opts.Count > 0 {
		specs := make([]domain.WorkerSpec, 0, opts.Count)
		for i := 1; i <= opts.Count; i++ {
			program, args := opts.Invocation("")
			specs = append(specs, domain.WorkerSpec{
				ID:      i,
				Label:   fmt.Sprintf("%s %d", constants.UnnamedLabel, i),
				Program: program,
				Args:    args,
			})
		}
		return specs
	}

	if len(groups) == 0 {
		groups = []queueGroup{{name: constants.DefaultQueue, count: constants.DefaultQueueCount}}
	}

	var specs []domain.WorkerSpec
	id := 0
	for _, g := range groups {
		for i := 0; i < g.count; i++ {
			id++
			program, args := opts.Invocation(g.name)
			specs = append(specs, domain.WorkerSpec{
				ID:      id,
				Label:   g.name,
				Queue:   g.name,
				Program: program,
				Args:    args,
			})
		}
	}
	return specs
}

// parseQueues consumes tokens two at a time
func parseQueues(tokens []string) []queueGroup {
	groups := make([]queueGroup, 0, (len(tokens)+1)/2)
	for i := 0; i < len(tokens); i += 2 {
		g := queueGroup{name: tokens[i], count: 1}
		if i+1 < len(tokens) {
			g.count = parseCount(tokens[i+1])
		}
		groups = append(groups, g)
	}
	return groups
}

// parseCount falls back to one for anything that is not a positive integer
func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// LayoutFor computes the prefix column widths for a set of specs
func LayoutFor(specs []domain.WorkerSpec) domain.Layout {
	layout := domain.Layout{IDWidth: constants.MinIDWidth}
	maxID := 0
	for _, s := range specs {
		// Prefix pads by runes, so the width is counted the same way
		if n := utf8.RuneCountInString(s.Label); n > layout.LabelWidth {
			layout.LabelWidth = n
		}
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	if w := len(strconv.Itoa(maxID)); w > layout.IDWidth {
		layout.IDWidth = w
	}
	return layout
}
