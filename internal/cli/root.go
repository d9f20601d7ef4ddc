// Package cli implements the qrun command line
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/charliek/qrun/internal/config"
	"github.com/charliek/qrun/internal/constants"
)

// Version is set during build
var Version = "dev"

// app holds what the commands write to and how interrupts are delivered
type app struct {
	stdout io.Writer
	stderr io.Writer

	notify     func(c chan<- os.Signal, sig ...os.Signal)
	stopNotify func(c chan<- os.Signal)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:     stdout,
		stderr:     stderr,
		notify:     signal.Notify,
		stopNotify: signal.Stop,
	}
}

// Execute runs qrun with the process arguments and returns the exit code
func Execute() int {
	return newApp(os.Stdout, os.Stderr).execute(context.Background(), os.Args[1:])
}

func (a *app) execute(ctx context.Context, args []string) int {
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runFlags are the flags only a supervising run has
type runFlags struct {
	addr  string
	token string
	tui   bool
}

func (a *app) rootCmd() *cobra.Command {
	opts := config.DefaultOptions()
	var rf runFlags

	root := &cobra.Command{
		Use:   "qrun [queue count ...]",
		Short: "Run Laravel queue workers side by side",
		Long: `qrun starts a set of queue workers, prefixes their output with the
worker number and queue, and stops all of them together on Ctrl+C.

Queues are given as name/count pairs. Without queues, qrun runs two
workers on the "default" queue, or --count unnamed workers.`,
		Example: `  qrun                      # two workers on "default"
  qrun default 3 emails 1   # three on default, one on emails
  qrun --count 4 --no-herd  # four workers, php invoked directly
  qrun plan default 2 --format json`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorkers(cmd.Context(), opts, args, rf)
		},
	}

	bindWorkerFlags(root.Flags(), &opts)
	root.Flags().StringVar(&rf.addr, "addr", "", "Serve the control API on HOST:PORT (e.g. "+constants.DefaultAPIAddr+")")
	root.Flags().StringVar(&rf.token, "token", "", "Bearer token for the control API (generated when binding beyond localhost)")
	root.Flags().BoolVar(&rf.tui, "tui", false, "Show an interactive dashboard instead of plain output")

	root.SetVersionTemplate("qrun version {{.Version}}\n")

	root.AddCommand(
		a.planCmd(),
		a.versionCmd(),
		a.statusCmd(),
		a.logsCmd(),
		a.stopCmd(),
	)

	return root
}

// bindWorkerFlags registers the flags that shape worker invocations
func bindWorkerFlags(fs *pflag.FlagSet, opts *config.Options) {
	fs.IntVarP(&opts.Count, "count", "c", 0, "Run N unnamed workers when no queues are given")
	fs.BoolVar(&opts.NoHerd, "no-herd", false, "Run the program directly instead of through the shim")
	fs.BoolVar(&opts.UseWork, "use-work", false, "Use queue:work instead of queue:listen")
	fs.IntVarP(&opts.Timeout, "timeout", "t", constants.DefaultTimeout, "Job timeout in seconds passed to the workers")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Pass -v to the workers")
	fs.StringVar(&opts.Program, "program", constants.DefaultProgram, "Program the workers run")
	fs.StringVar(&opts.Entrypoint, "entrypoint", constants.DefaultEntrypoint, "First argument to the program")
	fs.StringVar(&opts.Shim, "shim", constants.DefaultShim, "Shim that runs the program unless --no-herd is set")
	fs.StringVar(&opts.EnvFile, "env-file", "", "Dotenv file added to the workers' environment")
	fs.DurationVar(&opts.Grace, "grace", 0, "Time between SIGTERM and SIGKILL on shutdown (0 kills at once)")
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "qrun version %s\n", Version)
		},
	}
}
