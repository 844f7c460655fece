package models

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"embedding-harmonizer/cmd/harmonizer/cmd/cli"
	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/api/v1/services"
	"embedding-harmonizer/internal/app"
	"embedding-harmonizer/internal/app/persistence"
	"embedding-harmonizer/internal/app/registry"
	"embedding-harmonizer/internal/app/registry/export"
)

var (
	providerFilter string
	statusFilter   string
	asJSON         bool
	xlsxPath       string
)

func init() {
	listCmd.Flags().StringVarP(&providerFilter, "provider", "p", "", "only models of this provider")
	listCmd.Flags().StringVarP(&statusFilter, "status", "s", "", "only models with this status (available, new, deprecated, unavailable)")
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	reportCmd.Flags().StringVarP(&xlsxPath, "xlsx", "o", "", "also write the report to this xlsx file")

	Cmd.AddCommand(listCmd, showCmd, reportCmd, schemaCmd)
}

// Cmd represents the models command
var Cmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the active model registry",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered models and what standardization does to each",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, cleanup, err := app.InitializeCore(cmd.Context(), cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		svc := services.NewRegistryService(core.Registry, core.Standardizer)
		resp, err := svc.ListModels(cmd.Context(), dto.ListModelsQuery{Provider: providerFilter, Status: statusFilter})
		if err != nil {
			return err
		}
		if asJSON {
			return cli.PrintJSON(cmd.OutOrStdout(), resp)
		}
		PrintModels(cmd.OutOrStdout(), resp)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <model_key>",
	Short: "Show one model descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, cleanup, err := app.InitializeCore(cmd.Context(), cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		d, ok := core.Registry.Lookup(args[0])
		if !ok {
			return fmt.Errorf("model %s is not registered (snapshot v%d)", args[0], core.Registry.Current().Version())
		}
		out, err := yaml.Marshal(d)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the compatibility report of the active snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, cleanup, err := app.InitializeCore(cmd.Context(), cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		target := core.Standardizer.Policy().TargetDimension
		PrintReport(cmd.OutOrStdout(), core.Registry.CompatibilityReport(), target)

		if xlsxPath != "" {
			if err := export.ToExcel(core.Registry.Current(), target, xlsxPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nexport finished, exported file path: %v\n", xlsxPath)
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the persisted snapshot document",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := persistence.SchemaJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// PrintModels renders the model list as a table.
func PrintModels(w io.Writer, resp *dto.ModelListResponse) {
	cli.Heading(w, fmt.Sprintf("Snapshot v%d, target dimension %d, %d models", resp.Version, resp.TargetDimension, resp.Total))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tSTATUS\tNATIVE\tSUPPORTED\tACTION")
	for _, m := range resp.Models {
		native := "-"
		if m.NativeDimension != nil {
			native = fmt.Sprint(*m.NativeDimension)
		}
		supported := "-"
		if len(m.SupportedDimensions) > 0 {
			parts := make([]string, len(m.SupportedDimensions))
			for i, d := range m.SupportedDimensions {
				parts[i] = fmt.Sprint(d)
			}
			supported = strings.Join(parts, ",")
		}
		action := m.Action
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ModelKey, m.Status, native, supported, action)
	}
	_ = tw.Flush()
}

// PrintReport renders a compatibility report.
func PrintReport(w io.Writer, report registry.CompatibilityReport, targetDimension int) {
	cli.Heading(w, fmt.Sprintf("Compatibility report, snapshot v%d", report.Version))
	fmt.Fprintf(w, "target dimension: %d\n", targetDimension)
	fmt.Fprintf(w, "total %d: %s available, %d new, %d deprecated, %s unavailable\n",
		report.Total,
		cli.OK(fmt.Sprint(report.Available)),
		report.New,
		report.Deprecated,
		cli.Warn(fmt.Sprint(report.Unavailable)),
	)

	providers := make([]string, 0, len(report.ByProvider))
	for p := range report.ByProvider {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	fmt.Fprintln(w)
	cli.Heading(w, "By provider")
	for _, p := range providers {
		fmt.Fprintf(w, "  %-10s %d\n", p, report.ByProvider[p])
	}

	dims := make([]int, 0, len(report.ByDimension))
	for d := range report.ByDimension {
		dims = append(dims, d)
	}
	sort.Ints(dims)
	fmt.Fprintln(w)
	cli.Heading(w, "By native dimension")
	for _, d := range dims {
		fmt.Fprintf(w, "  %-10d %d\n", d, report.ByDimension[d])
	}

	if len(report.Configurable) > 0 {
		fmt.Fprintln(w)
		cli.Heading(w, "Configurable dimensions")
		fmt.Fprintln(w, "  "+strings.Join(report.Configurable, "\n  "))
	}
}
