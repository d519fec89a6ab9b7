// Command autohds clusters data files with Hierarchical Density Shaving and
// Auto-HDS.
package main

import (
	"os"

	"github.com/TrevorS/autohds/cmd/autohds/commands"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autohds",
	Short: "Hierarchical Density Shaving and Auto-HDS clustering",
	Long: `autohds finds clusters of varying density in vector data or distance
matrices and ranks them by stability.

Available commands:
  cluster      - run HDS and Auto-HDS on a data file
  hierarchy    - recompute Auto-HDS clusters from saved HDS data
  inspect      - show saved HDS levels and classes
  import-graph - import HDS labels from an external graph clustering

Settings are read from autohds.toml in the working directory (or --config)
and AUTOHDS_* environment variables; flags take precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./autohds.toml)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log output (-v info, -vv debug)")
	rootCmd.PersistentFlags().Bool("json", false, "write logs as JSON")

	rootCmd.AddCommand(commands.ClusterCmd)
	rootCmd.AddCommand(commands.HierarchyCmd)
	rootCmd.AddCommand(commands.InspectCmd)
	rootCmd.AddCommand(commands.ImportGraphCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		os.Exit(1)
	}
}
