package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"embedding-harmonizer/cmd/harmonizer/cmd/backup"
	"embedding-harmonizer/cmd/harmonizer/cmd/cli"
	"embedding-harmonizer/cmd/harmonizer/cmd/discover"
	"embedding-harmonizer/cmd/harmonizer/cmd/models"
	"embedding-harmonizer/cmd/harmonizer/cmd/serve"
	"embedding-harmonizer/cmd/harmonizer/cmd/standardize"
	"embedding-harmonizer/cmd/harmonizer/cmd/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "harmonizer",
	Short: "Keep embeddings from many models in one vector index",
	Long: `Harmonizer maps embeddings of any model onto the single dimension of a vector index.

- A model registry records each model's native dimension
- Discovery re-reads the provider catalogs and publishes registry snapshots safely
- Vectors are validated against the registry, then padded or truncated`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(discover.Cmd)
	rootCmd.AddCommand(models.Cmd)
	rootCmd.AddCommand(backup.Cmd)
	rootCmd.AddCommand(standardize.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, cli.ConfigFlag, "c", "", "config file (default ./harmonizer.yaml or $HOME/.config/harmonizer/harmonizer.yaml)")
}
