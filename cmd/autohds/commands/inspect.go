package commands

import (
	"strconv"

	"github.com/TrevorS/autohds"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// InspectCmd summarises saved HDS data.
var InspectCmd = &cobra.Command{
	Use:   "inspect DATA",
	Short: "Show the saved HDS levels and classes of a data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := autohds.LoadSaved(args[0])
		if err != nil {
			return err
		}
		if st.ExternalGraph {
			pterm.Info.Println("labels were imported from an external graph clustering")
		}
		if err := printLevels(st); err != nil {
			return err
		}
		if len(st.Classes) == 0 {
			return nil
		}
		pterm.DefaultSection.Println("Classes")
		counts := make(map[int]int, len(st.Classes))
		for _, c := range st.ClassLabels {
			counts[c]++
		}
		data := pterm.TableData{{"class", "points"}}
		for _, c := range st.Classes {
			data = append(data, []string{strconv.Itoa(c), strconv.Itoa(counts[c])})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}
