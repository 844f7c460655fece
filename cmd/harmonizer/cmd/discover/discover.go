package discover

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"embedding-harmonizer/cmd/harmonizer/cmd/cli"
	"embedding-harmonizer/internal/app"
	"embedding-harmonizer/internal/app/discovery"
)

var asJSON bool

func init() {
	Cmd.Flags().BoolVar(&asJSON, "json", false, "print the change report as JSON")
}

// Cmd represents the discover command
var Cmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery cycle and publish the result",
	Long: `Run one discovery cycle

- Lists the models of every enabled provider catalog
- Probes models whose dimension is not declared
- Diffs against the active snapshot and publishes a new one when anything changed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cli.SignalContext(cmd.Context())
		defer cancel()

		core, cleanup, err := app.InitializeCore(ctx, cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := core.Discovery.RunCycle(ctx)
		if err != nil {
			return err
		}

		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), report)
		}
		PrintReport(cmd.OutOrStdout(), report)
		return nil
	},
}

// PrintReport renders a change report for people.
func PrintReport(w io.Writer, report *discovery.ChangeReport) {
	cli.Heading(w, "Discovery cycle")
	if report.Published {
		fmt.Fprintf(w, "%s snapshot v%d -> v%d\n", cli.OK("published"), report.FromVersion, report.ToVersion)
	} else {
		fmt.Fprintf(w, "%s snapshot v%d\n", cli.Muted("unchanged"), report.FromVersion)
	}
	fmt.Fprintf(w, "catalog models: %d, took %s\n", report.CatalogModels, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	printKeys(w, "New", report.NewModels)
	printKeys(w, "Deprecated", report.DeprecatedModels)
	printKeys(w, "Removed", report.RemovedModels)
	printKeys(w, "Unreachable providers", report.UnreachableProviders)

	if len(report.DimensionChanges) > 0 {
		fmt.Fprintln(w)
		cli.Heading(w, fmt.Sprintf("Dimension changes (%d)", len(report.DimensionChanges)))
		for _, c := range report.DimensionChanges {
			fmt.Fprintf(w, "  %s %s -> %s\n", c.ModelKey, dim(c.Previous), dim(c.Current))
		}
	}

	if len(report.UnavailableModels) > 0 {
		reasons := make(map[string]string, len(report.ProbeFailures))
		for _, f := range report.ProbeFailures {
			reasons[f.ModelKey] = f.Reason + ": " + f.Error
		}
		fmt.Fprintln(w)
		cli.Heading(w, fmt.Sprintf("Unavailable (%d)", len(report.UnavailableModels)))
		for _, key := range report.UnavailableModels {
			fmt.Fprintf(w, "  %s %s %s\n", cli.Warn("!"), key, cli.Muted(reasons[key]))
		}
	}
}

func printKeys(w io.Writer, title string, keys []string) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintln(w)
	cli.Heading(w, fmt.Sprintf("%s (%d)", title, len(keys)))
	fmt.Fprintln(w, "  "+strings.Join(keys, "\n  "))
}

func dim(d *int) string {
	if d == nil {
		return "unknown"
	}
	return fmt.Sprint(*d)
}
