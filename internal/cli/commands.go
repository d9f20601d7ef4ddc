package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/charliek/qrun/internal/api"
	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// clientFlags are shared by the commands that talk to a running qrun
type clientFlags struct {
	addr  string
	token string
	json  bool
}

func bindClientFlags(cmd *cobra.Command, cf *clientFlags) {
	cmd.Flags().StringVar(&cf.addr, "addr", constants.DefaultAPIAddr, "Control API address of the running qrun")
	cmd.Flags().StringVar(&cf.token, "token", os.Getenv(constants.TokenEnvVar), "API token (default $"+constants.TokenEnvVar+")")
	cmd.Flags().BoolVar(&cf.json, "json", false, "Print JSON")
}

func (cf clientFlags) client() *Client {
	return NewClient(cf.addr, cf.token)
}

func (a *app) statusCmd() *cobra.Command {
	var cf clientFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the workers of a running qrun",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cf.client()

			status, err := client.GetStatus()
			if err != nil {
				return fmt.Errorf("%w (is qrun running with --addr?)", err)
			}
			workers, err := client.GetWorkers()
			if err != nil {
				return err
			}

			if cf.json {
				return json.NewEncoder(a.stdout).Encode(map[string]any{
					"status":  status,
					"workers": workers.Workers,
				})
			}

			printStatus(a.stdout, status, workers.Workers)
			return nil
		},
	}

	bindClientFlags(cmd, &cf)
	return cmd
}

func printStatus(w io.Writer, status *api.StatusResponse, workers []api.WorkerResponse) {
	fmt.Fprintf(w, "Status: %s\n", status.Status)
	fmt.Fprintf(w, "Uptime: %s\n", formatDuration(time.Duration(status.UptimeSeconds)*time.Second))
	fmt.Fprintf(w, "Logs:   %d/%d buffered, %d written\n", status.Logs.Entries, status.Logs.Capacity, status.Logs.Written)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tSTATE\tPID\tUPTIME\tLINES")
	for _, wr := range workers {
		uptime := formatDuration(time.Duration(wr.UptimeSeconds) * time.Second)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\n", wr.ID, wr.Label, wr.State, wr.PID, uptime, wr.Lines)
	}
	tw.Flush()
}

func (a *app) logsCmd() *cobra.Command {
	var cf clientFlags
	params := domain.LogParams{Lines: constants.DefaultLogLimit}
	follow := false

	cmd := &cobra.Command{
		Use:   "logs [queue]",
		Short: "Show recent output of a running qrun",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				params.Worker = args[0]
			}
			if params.Lines < 1 {
				return fmt.Errorf("invalid lines value %d (must be a positive integer)", params.Lines)
			}

			client := cf.client()
			emit := func(entry api.LogEntryResponse) {
				if cf.json {
					_ = json.NewEncoder(a.stdout).Encode(entry)
					return
				}
				printLogEntry(a.stdout, entry)
			}

			if follow {
				return client.StreamLogs(cmd.Context(), params, emit)
			}

			resp, err := client.GetLogs(params)
			if err != nil {
				return err
			}
			for _, entry := range resp.Logs {
				emit(entry)
			}
			if !cf.json && resp.FilteredCount < resp.TotalCount {
				fmt.Fprintf(a.stdout, "\n(showing %d of %d entries)\n", resp.FilteredCount, resp.TotalCount)
			}
			return nil
		},
	}

	bindClientFlags(cmd, &cf)
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Show the last --lines entries, then stream new output")
	cmd.Flags().IntVarP(&params.Lines, "lines", "n", params.Lines, "Number of lines to show")
	cmd.Flags().StringVar(&params.Pattern, "pattern", "", "Only show lines containing this text")
	cmd.Flags().BoolVar(&params.Regex, "regex", false, "Treat --pattern as a regular expression")
	return cmd
}

func (a *app) stopCmd() *cobra.Command {
	var cf clientFlags

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop all workers of a running qrun",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cf.client().Shutdown(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Shutdown initiated")
			return nil
		},
	}

	bindClientFlags(cmd, &cf)
	return cmd
}

// printLogEntry prints one entry in the console layout with a timestamp
func printLogEntry(w io.Writer, entry api.LogEntryResponse) {
	ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	fmt.Fprintf(w, "%s [%02d] %-10s | %s\n", ts.Format("15:04:05"), entry.WorkerID, entry.Worker, entry.Line)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
