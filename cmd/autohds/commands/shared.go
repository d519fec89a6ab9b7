package commands

import (
	"github.com/TrevorS/autohds"
	"github.com/TrevorS/autohds/internal/config"
	"github.com/TrevorS/autohds/internal/logger"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setup loads settings for cmd and returns them with the engine config and a
// logger already attached.
func setup(cmd *cobra.Command) (*config.Settings, autohds.Config, *zap.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	s, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, autohds.Config{}, nil, err
	}
	cfg, err := s.EngineConfig()
	if err != nil {
		return nil, autohds.Config{}, nil, err
	}
	verbosity, _ := cmd.Flags().GetCount("verbose")
	log, err := logger.New(verbosity, s.Log.JSON)
	if err != nil {
		return nil, autohds.Config{}, nil, errors.Wrap(err, "initialize logger")
	}
	cfg.Logger = log
	return s, cfg, log, nil
}

// progressBars shows one pterm progress bar per clustering stage.
type progressBars struct {
	stage string
	bar   *pterm.ProgressbarPrinter
}

func (p *progressBars) update(stage string, done, total int) {
	if stage != p.stage || p.bar == nil {
		p.stop()
		p.stage = stage
		bar, err := pterm.DefaultProgressbar.WithTotal(total).WithTitle(stage).Start()
		if err != nil {
			return
		}
		p.bar = bar
	}
	if delta := done - p.bar.Current; delta > 0 {
		p.bar.Add(delta)
	}
}

func (p *progressBars) stop() {
	if p.bar != nil {
		p.bar.Stop()
		p.bar = nil
	}
}

func addEngineFlags(cmd *cobra.Command) {
	d := autohds.DefaultConfig()
	f := cmd.Flags()
	f.Int("neps", d.Neps, "neighbours (self included) within the radius of a dense point, >= 3")
	f.Float64("fshave", d.Fshave, "fraction of points shaved off as sparse at the first level, in (0, 1)")
	f.Float64("rshave", d.Rshave, "fraction of dense points shaved off between levels, in (0, fshave]")
	f.Int("runt", d.RuntSize, "largest split-off group discarded instead of becoming a cluster")
	f.Bool("single-cut", false, "compute one density level only and skip Auto-HDS")
	f.String("measure", d.Measure.String(), "distance measure: euclidean, pearson or cosine")
	f.Bool("matrix", false, "the data file is a square distance matrix")
	f.String("delimiter", d.Delimiter, "column delimiter (whitespace always separates columns)")
	f.Bool("skip-header", false, "skip the first line of a vector file")
	f.Int("class-col-idx", d.ClassColumn, "zero-based column holding integer class labels, -1 for none")
	f.String("class-col", "", "name of the class label column (needs --skip-header)")
	f.String("strategy", string(d.Strategy), "connected components strategy: brute or incremental")
	f.Int("buffer-mb", d.BufferSize/1_000_000, "megabytes for I/O buffers and distance row batches")
	f.Int("workers", 0, "goroutines computing distance rows, 0 for one per CPU")
	f.Bool("no-reuse", false, "recompute distances and HDS even when saved results match")
}
