package commands

import (
	"github.com/TrevorS/autohds"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ImportGraphCmd turns externally computed HDS label files into saved HDS
// data.
var ImportGraphCmd = &cobra.Command{
	Use:   "import-graph DATA",
	Short: "Import HDS labels produced by an external graph clustering",
	Long: `Rebuild the _hds.info file of DATA from its .hds and _sorted.idx text
files. When <base>_cluster_labels.txt exists, its "description,label" lines
are matched to points through <base>.dsc and saved as class labels.

Run "autohds hierarchy DATA" afterwards to extract Auto-HDS clusters.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := autohds.ImportGraphLabels(args[0], cfg)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("imported %d points over %d levels", st.NumPt, st.NumLevels())
		return printLevels(st)
	},
}
