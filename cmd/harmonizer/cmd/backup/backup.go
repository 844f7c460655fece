package backup

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"embedding-harmonizer/cmd/harmonizer/cmd/cli"
	"embedding-harmonizer/internal/api/v1/dto"
	"embedding-harmonizer/internal/api/v1/services"
	"embedding-harmonizer/internal/app"
	"embedding-harmonizer/internal/app/persistence"
)

func init() {
	Cmd.AddCommand(listCmd, restoreCmd)
}

// Cmd represents the backup command
var Cmd = &cobra.Command{
	Use:   "backup",
	Short: "List and restore registry snapshot backups",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, cleanup, err := app.InitializeCore(cmd.Context(), cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := services.NewBackupService(core.Store, core.Discovery).ListBackups(cmd.Context())
		if err != nil {
			return err
		}
		PrintBackups(cmd.OutOrStdout(), resp, core.Registry.Current().Version())
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup_id|" + persistence.DefaultsID + ">",
	Short: "Republish a backup, or the built-in defaults, as the active snapshot",
	Long: `Republish a backup as the active snapshot

- The current snapshot is backed up first
- The restored models are published under a new version number
- "` + persistence.DefaultsID + `" restores the built-in registry and works without any backup`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cli.SignalContext(cmd.Context())
		defer cancel()

		core, cleanup, err := app.InitializeCore(ctx, cli.ConfigPath(cmd))
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := services.NewBackupService(core.Store, core.Discovery).Restore(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s as snapshot v%d (%d models)\n",
			cli.OK("restored"), resp.BackupID, resp.Version, resp.Models)
		return nil
	},
}

// PrintBackups renders the backup history. activeVersion marks the backup
// holding the same version as the active snapshot, if any.
func PrintBackups(w io.Writer, resp *dto.BackupListResponse, activeVersion uint64) {
	cli.Heading(w, fmt.Sprintf("Backups (%s, %d)", resp.Backend, len(resp.Backups)))
	if len(resp.Backups) == 0 {
		fmt.Fprintln(w, cli.Muted("no backups yet; restore "+persistence.DefaultsID+" is always available"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tGENERATED\tMODELS\t")
	for _, b := range resp.Backups {
		marker := ""
		if b.Version == activeVersion {
			marker = "active"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", b.ID, b.Version, b.GeneratedAt.Format(time.RFC3339), b.Models, marker)
	}
	_ = tw.Flush()
}
