package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/charliek/qrun/internal/config"
	"github.com/charliek/qrun/internal/domain"
)

// planDoc is what plan prints
type planDoc struct {
	Workers []domain.WorkerSpec `yaml:"workers" json:"workers"`
}

func (a *app) planCmd() *cobra.Command {
	opts := config.DefaultOptions()
	format := "yaml"

	cmd := &cobra.Command{
		Use:   "plan [queue count ...]",
		Short: "Print the workers a run would start, without starting them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(opts); err != nil {
				return err
			}
			return writePlan(a.stdout, format, config.Resolve(opts, args))
		},
	}

	bindWorkerFlags(cmd.Flags(), &opts)
	cmd.Flags().StringVarP(&format, "format", "o", format, "Output format: yaml, json or text")

	return cmd
}

// writePlan renders specs in the given format
func writePlan(w io.Writer, format string, specs []domain.WorkerSpec) error {
	doc := planDoc{Workers: specs}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		return enc.Close()

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)

	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tCOMMAND")
		for _, s := range specs {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.Label, s.CommandLine())
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown output format %q (want yaml, json or text)", format)
	}
}
