// Package constants provides shared configuration values used across the qrun application.
package constants

import "time"

// Worker invocation defaults
const (
	// DefaultProgram is the base program every worker runs
	DefaultProgram = "php"

	// DefaultShim is the local service runner that mediates execution
	// unless --no-herd is given
	DefaultShim = "herd"

	// DefaultEntrypoint is the first argument passed to the base program
	DefaultEntrypoint = "artisan"

	// ListenSubcommand keeps a worker listening for jobs
	ListenSubcommand = "queue:listen"

	// WorkSubcommand is selected with --use-work
	WorkSubcommand = "queue:work"

	// DefaultTimeout is the worker job timeout in seconds. It is only
	// forwarded to the worker when it differs from this value.
	DefaultTimeout = 60

	// VerboseFlag is forwarded to the worker when --verbose is set
	VerboseFlag = "-v"
)

// Resolver defaults
const (
	// DefaultQueue is the queue used when no queues are given
	DefaultQueue = "default"

	// DefaultQueueCount is the number of workers for DefaultQueue
	DefaultQueueCount = 2

	// UnnamedLabel is the label prefix for workers in count form
	UnnamedLabel = "worker"

	// MinIDWidth is the minimum zero-padded width of worker ids
	MinIDWidth = 2
)

// API defaults
const (
	// DefaultAPIHost is the default host for the control API
	DefaultAPIHost = "127.0.0.1"

	// DefaultAPIAddr is where client commands look for a running qrun
	DefaultAPIAddr = DefaultAPIHost + ":5555"

	// TokenEnvVar holds the API token for client commands
	TokenEnvVar = "QRUN_TOKEN"

	// DefaultRequestTimeout is the default timeout for API requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultShutdownTimeout bounds the control API shutdown
	DefaultShutdownTimeout = 10 * time.Second

	// SSEKeepAliveInterval is the idle time before a log stream gets a
	// keepalive comment
	SSEKeepAliveInterval = 15 * time.Second
)

// Log configuration
const (
	// DefaultLogLimit is the default number of log lines to return
	DefaultLogLimit = 100

	// MaxLogLines is the maximum number of log lines that can be requested
	MaxLogLines = 10000
)

// Buffer sizes
const (
	// DefaultLogBufferSize is the default size for log buffers
	DefaultLogBufferSize = 1000

	// DefaultSubscriptionBuffer is the default size for subscription buffers
	DefaultSubscriptionBuffer = 100

	// MaxLineLength is the longest worker line delivered in one piece.
	// Longer lines are split at this length.
	MaxLineLength = 1024 * 1024 // 1MB
)

// ProcessColors are the ANSI colors used for worker prefixes
var ProcessColors = []string{
	"6", // cyan
	"3", // yellow
	"2", // green
	"5", // magenta
	"4", // blue
	"1", // red
}
