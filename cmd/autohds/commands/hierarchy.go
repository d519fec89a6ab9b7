package commands

import (
	"github.com/TrevorS/autohds"
	"github.com/spf13/cobra"
)

// HierarchyCmd reruns Auto-HDS on saved HDS data.
var HierarchyCmd = &cobra.Command{
	Use:   "hierarchy DATA",
	Short: "Recompute Auto-HDS clusters from saved HDS data",
	Long: `Rebuild the Auto-HDS clusters of DATA from its _hds.info file without
recomputing distances, typically to try another runt size.

Examples:
  autohds hierarchy genes.txt --runt 5`,
	Args: cobra.ExactArgs(1),
	RunE: runHierarchy,
}

func init() {
	d := autohds.DefaultConfig()
	HierarchyCmd.Flags().Int("runt", d.RuntSize, "largest split-off group discarded instead of becoming a cluster")
	HierarchyCmd.Flags().Float64("rshave", d.Rshave, "shave rate used for stability when the run manifest is missing")
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	_, cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	res, err := autohds.RunHierarchy(args[0], cfg)
	if err != nil {
		return err
	}
	return printClusters(res.State, res.Hierarchy, 20)
}
