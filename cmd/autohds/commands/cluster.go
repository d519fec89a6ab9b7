package commands

import (
	"strconv"

	"github.com/TrevorS/autohds"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ClusterCmd runs HDS and Auto-HDS on a data file.
var ClusterCmd = &cobra.Command{
	Use:   "cluster DATA",
	Short: "Cluster a vector or distance matrix file",
	Long: `Run Hierarchical Density Shaving on DATA and rank the resulting clusters
with Auto-HDS. Results are written next to DATA:

  <base>.hds, <base>_sorted.hds   HDS labels per point and level
  <base>_sorted.hma               Auto-HDS labels in the same order
  <base>_sorted.idx               1-based point index of each sorted row
  <base>_lab.csv                  cluster members, most stable cluster first
  <base>.dist, <base>_hds.info    reused by later runs

Examples:
  autohds cluster genes.txt --neps 10 --fshave 0.3 --rshave 0.05
  autohds cluster genes.txt --measure pearson --skip-header --class-col label
  autohds cluster dist.txt --matrix --single-cut`,
	Args: cobra.ExactArgs(1),
	RunE: runCluster,
}

func init() {
	addEngineFlags(ClusterCmd)
}

func runCluster(cmd *cobra.Command, args []string) error {
	s, cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	bars := &progressBars{}
	if !s.Log.JSON {
		cfg.Progress = bars.update
	}
	res, err := autohds.Run(args[0], cfg)
	bars.stop()
	if err != nil {
		return err
	}
	log.Info("clustering finished", zap.String("run_id", res.RunID), zap.Bool("reused", res.Reused))

	if res.Reused {
		pterm.Info.Println("HDS data is up to date, loaded from the last run")
	}
	if err := printLevels(res.State); err != nil {
		return err
	}
	if res.Hierarchy == nil {
		pterm.Success.Printfln("%d dense points in %d clusters", res.State.DenseSizes[0], res.State.NumClusters[0])
		return nil
	}
	return printClusters(res.State, res.Hierarchy, 20)
}

func printLevels(st *autohds.State) error {
	levels := st.NumLevels()
	pterm.DefaultSection.Println("Density levels")
	pterm.Printfln("points %d, levels %d, neps %d, fshave %g", st.NumPt, levels, st.Neps, st.Fshave)
	if len(st.Reps) > 0 {
		pterm.Printfln("radius %g (sparsest) .. %g (densest)", st.Reps[0], st.Reps[levels-1])
	}
	data := pterm.TableData{{"level", "dense", "clusters"}}
	for _, l := range sampleLevels(levels, 10) {
		data = append(data, []string{
			strconv.Itoa(l),
			strconv.Itoa(st.DenseSizes[l]),
			strconv.Itoa(st.NumClusters[l]),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// sampleLevels picks at most limit evenly spaced levels, first and last
// included.
func sampleLevels(levels, limit int) []int {
	if levels <= limit {
		out := make([]int, levels)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, limit)
	for i := range out {
		out[i] = i * (levels - 1) / (limit - 1)
	}
	return out
}

func printClusters(st *autohds.State, h *autohds.Hierarchy, limit int) error {
	pterm.DefaultSection.Printfln("Auto-HDS clusters (runt size %d)", h.RuntSize)
	if h.NumClusters() == 0 {
		pterm.Warning.Println("no cluster is larger than the runt size")
		return nil
	}
	header := []string{"rank", "id", "size", "base", "peak", "stability"}
	if len(st.Classes) > 0 {
		header = append(header, "majority class")
	}
	data := pterm.TableData{header}
	for rank, c := range h.Ranked() {
		if rank == limit {
			break
		}
		row := []string{
			strconv.Itoa(rank + 1),
			strconv.Itoa(c.Label),
			strconv.Itoa(len(c.Members)),
			strconv.Itoa(c.BaseLevel),
			strconv.Itoa(c.PeakLevel),
			strconv.FormatFloat(c.Stability, 'f', 2, 64),
		}
		if len(st.Classes) > 0 {
			row = append(row, majorityClass(st.Classes, c.ClassCounts))
		}
		data = append(data, row)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	if h.NumClusters() > limit {
		pterm.Info.Printfln("%d more clusters in the _lab.csv file", h.NumClusters()-limit)
	}
	return nil
}

func majorityClass(classes, counts []int) string {
	best, total := 0, 0
	for k, n := range counts {
		total += n
		if n > counts[best] {
			best = k
		}
	}
	if total == 0 {
		return "-"
	}
	return strconv.Itoa(classes[best]) + " (" + strconv.Itoa(counts[best]*100/total) + "%)"
}
